package transaction

import (
	"fmt"

	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
)

// FeePolicy decides the fee of a transaction before it is signed.
type FeePolicy interface {
	Fee(tx *types.Transaction, params types.SuggestedParams) (amount.MicroAlgos, error)
}

// FlatFee charges the same fee regardless of size.
type FlatFee amount.MicroAlgos

func (f FlatFee) Fee(_ *types.Transaction, _ types.SuggestedParams) (amount.MicroAlgos, error) {
	return amount.MicroAlgos(f), nil
}

// SuggestedFee charges params.Fee per byte of the signed transaction,
// never less than params.MinFee.
type SuggestedFee struct{}

func (SuggestedFee) Fee(tx *types.Transaction, params types.SuggestedParams) (amount.MicroAlgos, error) {
	size := EstimateSize(*tx)
	fee, ok := params.Fee.MulUint64(uint64(size))
	if !ok {
		return 0, fmt.Errorf("%w: fee of %d per byte overflows for %d bytes", shared.ErrInvalidTransaction, params.Fee, size)
	}
	return amount.Max(fee, params.MinFee), nil
}

// EstimateSize is the encoded length of tx once signed, using a dummy signature.
func EstimateSize(tx types.Transaction) int {
	stx := types.SignedTxn{Txn: tx}
	for i := range stx.Sig {
		stx.Sig[i] = 0xff
	}
	return len(stx.Marshal())
}
