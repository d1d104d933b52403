package sandbox

import (
	"fmt"

	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/crypto"
)

// Network pairs a wallet daemon with a ledger node and seeds the default
// wallet with one account.
type Network struct {
	Wallets  *Wallets
	Ledger   *Ledger
	WalletID string
	Account  crypto.Account
}

// NetworkConfig configures NewNetwork. Empty fields take the defaults of a
// fresh sandnet.
type NetworkConfig struct {
	KMDToken       string
	AlgodToken     string
	WalletName     string
	WalletPassword string
	Mnemonic       string
	Ledger         *LedgerConfig
	WalletOptions  []WalletsOption
}

func NewNetwork(cfg NetworkConfig) (*Network, error) {
	wallets, err := NewWallets(cfg.KMDToken, cfg.WalletOptions...)
	if err != nil {
		return nil, err
	}

	name := cfg.WalletName
	if name == "" {
		name = config.DefaultWalletName
	}
	var walletID string
	if cfg.Mnemonic != "" {
		walletID, err = wallets.RestoreWallet(name, cfg.WalletPassword, cfg.Mnemonic)
	} else {
		walletID, err = wallets.CreateWallet(name, cfg.WalletPassword)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet %q: %v", name, err)
	}
	acct, err := wallets.GenerateKey(walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account: %v", err)
	}

	ledgerCfg := DefaultLedgerConfig(cfg.AlgodToken)
	if cfg.Ledger != nil {
		ledgerCfg = *cfg.Ledger
		ledgerCfg.APIToken = cfg.AlgodToken
	}

	return &Network{
		Wallets:  wallets,
		Ledger:   NewLedger(ledgerCfg),
		WalletID: walletID,
		Account:  acct,
	}, nil
}
