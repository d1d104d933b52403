package config

import "time"

const (
	// Fee Related
	DefaultFlatFee = 100_000 // 0.1 ALGO, the flat fee the sandnet example uses
	MinTxnFee      = 1_000

	// Validity Related
	DefaultValidityWindow = 1000
	MaxValidityWindow     = 1000 // maximum transaction life the ledger accepts

	// Wallet Related
	DefaultWalletName = "unencrypted-default-wallet"

	// Transport Related
	DefaultHTTPTimeout = 10 * time.Second

	// Confirmation Related
	MaxWaitRounds = 1000
)

// Fee modes
const (
	FeeModeFlat      = "flat"
	FeeModeSuggested = "suggested"
)
