// Package transaction assembles unsigned ledger transactions. Everything
// here is pure: no I/O, and the same inputs always produce the same bytes.
package transaction

import (
	"fmt"
	"math"

	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
)

// Builder accumulates transaction fields; Build validates and returns the result.
type Builder struct {
	tx        types.Transaction
	params    *types.SuggestedParams
	feePolicy FeePolicy
	errs      []error
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) Sender(a address.Address) *Builder {
	b.tx.Sender = a
	return b
}

func (b *Builder) FirstValid(r types.Round) *Builder {
	b.tx.FirstValid = r
	return b
}

func (b *Builder) LastValid(r types.Round) *Builder {
	b.tx.LastValid = r
	return b
}

func (b *Builder) GenesisID(id string) *Builder {
	b.tx.GenesisID = id
	return b
}

func (b *Builder) GenesisHash(d hash.Digest) *Builder {
	b.tx.GenesisHash = d
	return b
}

func (b *Builder) Note(note []byte) *Builder {
	b.tx.Note = note
	return b
}

// Fee sets a flat fee.
func (b *Builder) Fee(f amount.MicroAlgos) *Builder {
	b.feePolicy = FlatFee(f)
	return b
}

func (b *Builder) FeePolicy(p FeePolicy) *Builder {
	b.feePolicy = p
	return b
}

// SuggestedParams applies the genesis binding and a validity window of
// `window` rounds starting at params.LastRound.
func (b *Builder) SuggestedParams(params types.SuggestedParams, window uint64) *Builder {
	b.params = &params
	gh, err := params.GenesisDigest()
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("%w: %v", shared.ErrInvalidTransaction, err))
	}
	first, last, err := ValidityWindow(params.LastRound, window)
	if err != nil {
		b.errs = append(b.errs, err)
	}
	b.tx.GenesisID = params.GenesisID
	b.tx.GenesisHash = gh
	b.tx.FirstValid = first
	b.tx.LastValid = last
	return b
}

func (b *Builder) AssetConfiguration(spec AssetSpec) *Builder {
	fields, err := spec.Fields()
	if err != nil {
		b.errs = append(b.errs, err)
	}
	b.tx.Type = types.AssetConfigTx
	b.tx.AssetConfigTxnFields = fields
	return b
}

func (b *Builder) Payment(receiver address.Address, amt amount.MicroAlgos) *Builder {
	b.tx.Type = types.PaymentTx
	b.tx.PaymentTxnFields = types.PaymentTxnFields{Receiver: receiver, Amount: amt}
	return b
}

// Build validates the accumulated fields, applies the fee policy and returns
// the transaction.
func (b *Builder) Build() (types.Transaction, error) {
	if len(b.errs) > 0 {
		return types.Transaction{}, b.errs[0]
	}

	tx := b.tx
	if b.feePolicy != nil {
		var params types.SuggestedParams
		if b.params != nil {
			params = *b.params
		}
		fee, err := b.feePolicy.Fee(&tx, params)
		if err != nil {
			return types.Transaction{}, err
		}
		tx.Fee = fee
	}

	if err := Validate(tx); err != nil {
		return types.Transaction{}, err
	}
	return tx, nil
}

// ValidityWindow returns [first, first+window]. The window is capped by the
// maximum transaction life.
func ValidityWindow(first types.Round, window uint64) (types.Round, types.Round, error) {
	if window > config.MaxValidityWindow {
		return 0, 0, fmt.Errorf("%w: validity window of %d rounds exceeds %d", shared.ErrInvalidTransaction, window, config.MaxValidityWindow)
	}
	if uint64(first) > math.MaxUint64-window {
		return 0, 0, fmt.Errorf("%w: validity window overflows at round %d", shared.ErrInvalidTransaction, first)
	}
	return first, first + types.Round(window), nil
}

// Validate checks the structural invariants of an unsigned transaction.
func Validate(tx types.Transaction) error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", shared.ErrInvalidTransaction, fmt.Sprintf(format, args...))
	}

	if tx.Sender.IsZero() {
		return invalid("sender is not set")
	}
	if tx.FirstValid > tx.LastValid {
		return invalid("first valid round %d is after last valid round %d", tx.FirstValid, tx.LastValid)
	}
	if uint64(tx.LastValid-tx.FirstValid) > config.MaxValidityWindow {
		return invalid("validity window of %d rounds exceeds %d", tx.LastValid-tx.FirstValid, config.MaxValidityWindow)
	}
	if tx.GenesisHash.IsZero() {
		return invalid("genesis hash is not set")
	}

	switch tx.Type {
	case types.AssetConfigTx:
		if tx.PaymentTxnFields != (types.PaymentTxnFields{}) {
			return invalid("asset configuration carries payment fields")
		}
		if tx.ConfigAsset == 0 && tx.AssetParams.IsEmpty() {
			return invalid("asset creation needs asset parameters")
		}
		if err := tx.AssetParams.Validate(); err != nil {
			return err
		}
	case types.PaymentTx:
		if tx.AssetConfigTxnFields != (types.AssetConfigTxnFields{}) {
			return invalid("payment carries asset configuration fields")
		}
		if tx.Receiver.IsZero() {
			return invalid("payment receiver is not set")
		}
	case "":
		return invalid("transaction type is not set")
	default:
		return invalid("unsupported transaction type %q", tx.Type)
	}
	return nil
}
