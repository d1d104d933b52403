package types

import (
	"fmt"

	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/shared"
)

const (
	MaxAssetUnitNameBytes = 8
	MaxAssetNameBytes     = 32
	MaxAssetURLBytes      = 96
	MaxAssetDecimals      = 19
	AssetMetadataHashSize = 32
)

// AssetParams describes a fungible asset.
type AssetParams struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Total         uint64                      `codec:"t"`
	Decimals      uint32                      `codec:"dc"`
	DefaultFrozen bool                        `codec:"df"`
	UnitName      string                      `codec:"un"`
	AssetName     string                      `codec:"an"`
	URL           string                      `codec:"au"`
	MetadataHash  [AssetMetadataHashSize]byte `codec:"am"`
	Manager       address.Address             `codec:"m"`
	Reserve       address.Address             `codec:"r"`
	Freeze        address.Address             `codec:"f"`
	Clawback      address.Address             `codec:"c"`
}

// IsEmpty reports whether every field is unset, which is how a destroy is expressed.
func (ap AssetParams) IsEmpty() bool {
	return ap == AssetParams{}
}

// Validate checks the length and range bounds the ledger enforces.
func (ap AssetParams) Validate() error {
	if len(ap.UnitName) > MaxAssetUnitNameBytes {
		return fmt.Errorf("%w: unit name is %d bytes, maximum is %d", shared.ErrInvalidTransaction, len(ap.UnitName), MaxAssetUnitNameBytes)
	}
	if len(ap.AssetName) > MaxAssetNameBytes {
		return fmt.Errorf("%w: asset name is %d bytes, maximum is %d", shared.ErrInvalidTransaction, len(ap.AssetName), MaxAssetNameBytes)
	}
	if len(ap.URL) > MaxAssetURLBytes {
		return fmt.Errorf("%w: asset url is %d bytes, maximum is %d", shared.ErrInvalidTransaction, len(ap.URL), MaxAssetURLBytes)
	}
	if ap.Decimals > MaxAssetDecimals {
		return fmt.Errorf("%w: decimals is %d, maximum is %d", shared.ErrInvalidTransaction, ap.Decimals, MaxAssetDecimals)
	}
	return nil
}

// MetadataHashFromBytes accepts an empty slice or exactly AssetMetadataHashSize bytes.
func MetadataHashFromBytes(b []byte) ([AssetMetadataHashSize]byte, error) {
	var out [AssetMetadataHashSize]byte
	switch len(b) {
	case 0:
		return out, nil
	case AssetMetadataHashSize:
		copy(out[:], b)
		return out, nil
	default:
		return out, fmt.Errorf("%w: metadata hash must be empty or %d bytes, got %d", shared.ErrInvalidTransaction, AssetMetadataHashSize, len(b))
	}
}
