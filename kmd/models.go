package kmd

// Wallet is a wallet known to the daemon.
type Wallet struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	DriverName            string   `json:"driver_name"`
	DriverVersion         uint32   `json:"driver_version"`
	MnemonicUX            bool     `json:"mnemonic_ux"`
	SupportedTransactions []string `json:"supported_txs"`
}

// WalletHandle describes an open session.
type WalletHandle struct {
	Wallet         Wallet `json:"wallet"`
	ExpiresSeconds int64  `json:"expires_seconds"`
}

type ListWalletsResponse struct {
	Wallets []Wallet `json:"wallets"`
}

type InitWalletHandleRequest struct {
	WalletID       string `json:"wallet_id"`
	WalletPassword string `json:"wallet_password"`
}

type InitWalletHandleResponse struct {
	WalletHandleToken string `json:"wallet_handle_token"`
}

type WalletHandleRequest struct {
	WalletHandleToken string `json:"wallet_handle_token"`
}

type RenewWalletHandleResponse struct {
	WalletHandle WalletHandle `json:"wallet_handle"`
}

type ListKeysResponse struct {
	Addresses []string `json:"addresses"`
}

// SignTransactionRequest carries the msgpack-encoded unsigned transaction.
type SignTransactionRequest struct {
	WalletHandleToken string `json:"wallet_handle_token"`
	WalletPassword    string `json:"wallet_password"`
	Transaction       []byte `json:"transaction"`
}

// SignTransactionResponse carries the msgpack-encoded signed transaction.
type SignTransactionResponse struct {
	SignedTransaction []byte `json:"signed_transaction"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
