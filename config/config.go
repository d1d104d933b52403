package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/joho/godotenv"
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/shared"
)

// Config is everything a submission run reads from the environment.
type Config struct {
	KMDURL     string
	KMDToken   string
	AlgodURL   string
	AlgodToken string
	Account    string

	WalletName     string
	WalletPassword string

	ValidityWindow uint64
	FeeMode        string
	FlatFee        amount.MicroAlgos

	AlgodExtraURLs []string
	AlgodRPS       float64
	HTTPTimeout    time.Duration
	WaitRounds     uint64

	JournalDir string
	LogLevel   string
}

// RequiredVars must be set for a run to start.
var RequiredVars = []string{
	"KMD_URL",
	"KMD_TOKEN",
	"ALGOD_URL",
	"ALGOD_TOKEN",
	"ACCOUNT",
}

// Load reads envPath (if it exists) into the process environment without
// overriding variables already set, then builds the Config.
func Load(envPath string) (*Config, error) {
	if err := LoadEnvFile(envPath); err != nil {
		return nil, err
	}
	return FromEnv(os.Getenv)
}

// LoadEnvFile applies envPath to the process environment. A missing file is
// not an error.
func LoadEnvFile(envPath string) error {
	if envPath == "" {
		return nil
	}
	if _, err := os.Stat(envPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat environment file %s: %v", envPath, err)
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("error reading environment file at %s: %v", envPath, err)
	}
	return nil
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	missingVars := []string{}
	for _, v := range RequiredVars {
		if get(v) == "" {
			missingVars = append(missingVars, v)
		}
	}
	if len(missingVars) > 0 {
		return nil, fmt.Errorf("%w: missing required environment variables: %v", shared.ErrConfigMissing, missingVars)
	}

	cfg := &Config{
		KMDURL:         get("KMD_URL"),
		KMDToken:       get("KMD_TOKEN"),
		AlgodURL:       get("ALGOD_URL"),
		AlgodToken:     get("ALGOD_TOKEN"),
		Account:        get("ACCOUNT"),
		WalletName:     get("WALLET_NAME"),
		WalletPassword: getenv("WALLET_PASSWORD"),
		FeeMode:        strings.ToLower(get("FEE_MODE")),
		JournalDir:     get("JOURNAL_DIR"),
		LogLevel:       get("LOG_LEVEL"),
		HTTPTimeout:    DefaultHTTPTimeout,
	}
	if cfg.WalletName == "" {
		cfg.WalletName = DefaultWalletName
	}
	if cfg.FeeMode == "" {
		cfg.FeeMode = FeeModeFlat
	}

	var err error
	if cfg.ValidityWindow, err = uintWithFallback(get("VALIDITY_WINDOW"), DefaultValidityWindow); err != nil {
		return nil, fmt.Errorf("invalid VALIDITY_WINDOW: %v", err)
	}
	cfg.FlatFee = DefaultFlatFee
	if raw := get("FLAT_FEE"); raw != "" {
		if cfg.FlatFee, err = amount.FromString(raw); err != nil {
			return nil, fmt.Errorf("invalid FLAT_FEE: %v", err)
		}
	}
	if cfg.WaitRounds, err = uintWithFallback(get("WAIT_ROUNDS"), 0); err != nil {
		return nil, fmt.Errorf("invalid WAIT_ROUNDS: %v", err)
	}
	if raw := get("ALGOD_RPS"); raw != "" {
		if cfg.AlgodRPS, err = strconv.ParseFloat(raw, 64); err != nil || cfg.AlgodRPS < 0 {
			return nil, fmt.Errorf("invalid ALGOD_RPS: %q", raw)
		}
	}
	if raw := get("HTTP_TIMEOUT"); raw != "" {
		if cfg.HTTPTimeout, err = time.ParseDuration(raw); err != nil || cfg.HTTPTimeout <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %q", raw)
		}
	}
	for _, u := range strings.Split(get("ALGOD_EXTRA_URLS"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			cfg.AlgodExtraURLs = append(cfg.AlgodExtraURLs, u)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks URL syntax and policy bounds.
func (c *Config) Validate() error {
	urls := map[string]string{"KMD_URL": c.KMDURL, "ALGOD_URL": c.AlgodURL}
	for i, u := range c.AlgodExtraURLs {
		urls[fmt.Sprintf("ALGOD_EXTRA_URLS[%d]", i)] = u
	}
	for name, u := range urls {
		if !govalidator.IsRequestURL(u) {
			return fmt.Errorf("%s is not a valid URL: %q", name, u)
		}
	}

	if c.ValidityWindow == 0 || c.ValidityWindow > MaxValidityWindow {
		return fmt.Errorf("VALIDITY_WINDOW must be between 1 and %d, got %d", MaxValidityWindow, c.ValidityWindow)
	}
	if c.FeeMode != FeeModeFlat && c.FeeMode != FeeModeSuggested {
		return fmt.Errorf("FEE_MODE must be %q or %q, got %q", FeeModeFlat, FeeModeSuggested, c.FeeMode)
	}
	if c.FeeMode == FeeModeFlat && c.FlatFee < MinTxnFee {
		return fmt.Errorf("FLAT_FEE must be at least %d, got %d", MinTxnFee, c.FlatFee)
	}
	if c.WaitRounds > MaxWaitRounds {
		return fmt.Errorf("WAIT_ROUNDS must be at most %d, got %d", MaxWaitRounds, c.WaitRounds)
	}
	return nil
}

// AlgodURLs returns the primary node URL followed by any pool members.
func (c *Config) AlgodURLs() []string {
	return append([]string{c.AlgodURL}, c.AlgodExtraURLs...)
}

func uintWithFallback(raw string, fallback uint64) (uint64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
