package transaction

import (
	"fmt"

	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
)

// AssetSpec is the caller's view of an asset-configuration payload.
// AssetID 0 creates a new asset.
type AssetSpec struct {
	AssetID       types.AssetIndex
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
	UnitName      string
	AssetName     string
	URL           string
	MetadataHash  []byte
	Manager       address.Address
	Reserve       address.Address
	Freeze        address.Address
	Clawback      address.Address
}

// WithAuthorities sets all four authority addresses to addr.
func (s AssetSpec) WithAuthorities(addr address.Address) AssetSpec {
	s.Manager = addr
	s.Reserve = addr
	s.Freeze = addr
	s.Clawback = addr
	return s
}

// Fields converts the spec into wire fields, checking the ledger's bounds.
func (s AssetSpec) Fields() (types.AssetConfigTxnFields, error) {
	metadata, err := types.MetadataHashFromBytes(s.MetadataHash)
	if err != nil {
		return types.AssetConfigTxnFields{}, err
	}

	params := types.AssetParams{
		Total:         s.Total,
		Decimals:      s.Decimals,
		DefaultFrozen: s.DefaultFrozen,
		UnitName:      s.UnitName,
		AssetName:     s.AssetName,
		URL:           s.URL,
		MetadataHash:  metadata,
		Manager:       s.Manager,
		Reserve:       s.Reserve,
		Freeze:        s.Freeze,
		Clawback:      s.Clawback,
	}
	if err := params.Validate(); err != nil {
		return types.AssetConfigTxnFields{}, err
	}
	if s.AssetID == 0 && s.Total == 0 {
		return types.AssetConfigTxnFields{}, fmt.Errorf("%w: a new asset needs a non-zero total", shared.ErrInvalidTransaction)
	}

	return types.AssetConfigTxnFields{ConfigAsset: s.AssetID, AssetParams: params}, nil
}

// ReconfigureSpec changes the authorities of an existing asset. Only the
// addresses are mutable after creation.
func ReconfigureSpec(assetID types.AssetIndex, manager, reserve, freeze, clawback address.Address) AssetSpec {
	return AssetSpec{
		AssetID:  assetID,
		Manager:  manager,
		Reserve:  reserve,
		Freeze:   freeze,
		Clawback: clawback,
	}
}
