package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/thrylos-labs/sandnet/types"
)

var ErrInvalidSignature = errors.New("invalid signature")

// SignTransaction signs "TX" ‖ msgpack(tx) with the account key. The sender
// must be the account's address.
func SignTransaction(acct Account, tx types.Transaction) (types.SignedTxn, error) {
	if tx.Sender != acct.Address {
		return types.SignedTxn{}, fmt.Errorf("sender %s is not account %s", tx.Sender, acct.Address)
	}
	sig := ed25519.Sign(acct.PrivateKey, tx.BytesToSign())

	stx := types.SignedTxn{Txn: tx}
	copy(stx.Sig[:], sig)
	return stx, nil
}

// VerifySignedTxn checks the signature against the sender's public key.
func VerifySignedTxn(stx types.SignedTxn) error {
	if stx.Sig == (types.Signature{}) {
		return fmt.Errorf("%w: transaction is unsigned", ErrInvalidSignature)
	}
	if !ed25519.Verify(stx.Txn.Sender.PublicKey(), stx.Txn.BytesToSign(), stx.Sig[:]) {
		return ErrInvalidSignature
	}
	return nil
}
