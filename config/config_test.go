package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/shared"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"KMD_URL":     "http://localhost:4002",
		"KMD_TOKEN":   "kmd-token",
		"ALGOD_URL":   "http://localhost:4001",
		"ALGOD_TOKEN": "algod-token",
		"ACCOUNT":     "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ",
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, DefaultWalletName, cfg.WalletName)
	assert.Equal(t, "", cfg.WalletPassword)
	assert.Equal(t, uint64(DefaultValidityWindow), cfg.ValidityWindow)
	assert.Equal(t, FeeModeFlat, cfg.FeeMode)
	assert.Equal(t, amount.MicroAlgos(DefaultFlatFee), cfg.FlatFee)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, []string{"http://localhost:4001"}, cfg.AlgodURLs())
}

func TestFromEnvMissingVars(t *testing.T) {
	env := baseEnv()
	delete(env, "KMD_TOKEN")
	delete(env, "ACCOUNT")

	_, err := FromEnv(envMap(env))
	require.ErrorIs(t, err, shared.ErrConfigMissing)
	require.Contains(t, err.Error(), "KMD_TOKEN")
	require.Contains(t, err.Error(), "ACCOUNT")
}

func TestFromEnvOptionalValues(t *testing.T) {
	env := baseEnv()
	env["WALLET_NAME"] = "treasury"
	env["VALIDITY_WINDOW"] = "500"
	env["FEE_MODE"] = "Suggested"
	env["ALGOD_EXTRA_URLS"] = "http://node-b:4001, http://node-c:4001"
	env["ALGOD_RPS"] = "2.5"
	env["HTTP_TIMEOUT"] = "3s"
	env["WAIT_ROUNDS"] = "10"

	cfg, err := FromEnv(envMap(env))
	require.NoError(t, err)
	assert.Equal(t, "treasury", cfg.WalletName)
	assert.Equal(t, uint64(500), cfg.ValidityWindow)
	assert.Equal(t, FeeModeSuggested, cfg.FeeMode)
	assert.Equal(t, []string{"http://localhost:4001", "http://node-b:4001", "http://node-c:4001"}, cfg.AlgodURLs())
	assert.Equal(t, 2.5, cfg.AlgodRPS)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, uint64(10), cfg.WaitRounds)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"bad url":         {"KMD_URL", "not a url"},
		"window zero":     {"VALIDITY_WINDOW", "0"},
		"window too big":  {"VALIDITY_WINDOW", "1001"},
		"window negative": {"VALIDITY_WINDOW", "-1"},
		"fee mode":        {"FEE_MODE", "auction"},
		"fee too low":     {"FLAT_FEE", "10"},
		"fee in algos":    {"FLAT_FEE", "0.1"},
		"rps":             {"ALGOD_RPS", "fast"},
		"timeout":         {"HTTP_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			env[kv[0]] = kv[1]
			_, err := FromEnv(envMap(env))
			require.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	for _, k := range append(RequiredVars, "WALLET_NAME") {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "KMD_URL=http://localhost:4002\nKMD_TOKEN=a\nALGOD_URL=http://localhost:4001\nALGOD_TOKEN=b\nACCOUNT=X\nWALLET_NAME=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.WalletName)
	assert.Equal(t, "X", cfg.Account)
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	for k, v := range baseEnv() {
		t.Setenv(k, v)
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "kmd-token", cfg.KMDToken)
}
