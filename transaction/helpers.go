package transaction

import (
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/types"
)

// Policy is the caller's choice of validity window and fee. A nil Fee means
// SuggestedFee.
type Policy struct {
	ValidityWindow uint64
	Fee            FeePolicy
}

// Builder starts a builder with the sender, genesis binding, window and fee policy applied.
func (p Policy) Builder(sender address.Address, params types.SuggestedParams) *Builder {
	fee := p.Fee
	if fee == nil {
		fee = SuggestedFee{}
	}
	return New().
		Sender(sender).
		SuggestedParams(params, p.ValidityWindow).
		FeePolicy(fee)
}

// MakeAssetCreate builds an asset creation; spec.AssetID must be 0.
func MakeAssetCreate(sender address.Address, spec AssetSpec, params types.SuggestedParams, p Policy) (types.Transaction, error) {
	spec.AssetID = 0
	return p.Builder(sender, params).AssetConfiguration(spec).Build()
}

// MakeAssetReconfigure replaces the four authority addresses of an existing asset.
func MakeAssetReconfigure(sender address.Address, assetID types.AssetIndex, manager, reserve, freeze, clawback address.Address, params types.SuggestedParams, p Policy) (types.Transaction, error) {
	spec := ReconfigureSpec(assetID, manager, reserve, freeze, clawback)
	return p.Builder(sender, params).AssetConfiguration(spec).Build()
}

// MakeAssetDestroy removes an asset; the sender must be its manager.
func MakeAssetDestroy(sender address.Address, assetID types.AssetIndex, params types.SuggestedParams, p Policy) (types.Transaction, error) {
	return p.Builder(sender, params).AssetConfiguration(AssetSpec{AssetID: assetID}).Build()
}

// MakePayment moves amt MicroAlgos from sender to receiver.
func MakePayment(sender, receiver address.Address, amt amount.MicroAlgos, params types.SuggestedParams, p Policy) (types.Transaction, error) {
	return p.Builder(sender, params).Payment(receiver, amt).Build()
}
