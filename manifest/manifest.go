// Package manifest reads batches of asset definitions from YAML.
package manifest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/asaskevich/govalidator"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/transaction"
	"github.com/thrylos-labs/sandnet/types"
	"gopkg.in/yaml.v3"
)

// File is the top-level document.
type File struct {
	Assets []Asset `yaml:"assets"`
}

// Asset is one entry. Authority addresses accept either text form and may
// be left empty.
type Asset struct {
	AssetID       uint64 `yaml:"asset_id"`
	Total         uint64 `yaml:"total"`
	Decimals      uint32 `yaml:"decimals"`
	DefaultFrozen bool   `yaml:"default_frozen"`
	UnitName      string `yaml:"unit_name"`
	AssetName     string `yaml:"asset_name"`
	URL           string `yaml:"url"`
	MetadataHash  string `yaml:"metadata_hash"` // base64
	Manager       string `yaml:"manager"`
	Reserve       string `yaml:"reserve"`
	Freeze        string `yaml:"freeze"`
	Clawback      string `yaml:"clawback"`
}

// Load reads and validates the manifest at path.
func Load(path string) ([]transaction.AssetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %v", err)
	}
	specs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Parse decodes a manifest document. Unknown keys are rejected.
func Parse(data []byte) ([]transaction.AssetSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: malformed manifest: %v", shared.ErrInvalidFormat, err)
	}
	if len(f.Assets) == 0 {
		return nil, fmt.Errorf("%w: manifest lists no assets", shared.ErrInvalidFormat)
	}

	specs := make([]transaction.AssetSpec, 0, len(f.Assets))
	for i, a := range f.Assets {
		spec, err := a.Spec()
		if err != nil {
			return nil, fmt.Errorf("asset %d (%q): %w", i, a.AssetName, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Spec converts the entry, applying the same bounds the builder does.
func (a Asset) Spec() (transaction.AssetSpec, error) {
	spec := transaction.AssetSpec{
		AssetID:       types.AssetIndex(a.AssetID),
		Total:         a.Total,
		Decimals:      a.Decimals,
		DefaultFrozen: a.DefaultFrozen,
		UnitName:      a.UnitName,
		AssetName:     a.AssetName,
		URL:           a.URL,
	}

	if a.URL != "" && !govalidator.IsURL(a.URL) {
		return spec, fmt.Errorf("%w: url %q is not a URL", shared.ErrInvalidFormat, a.URL)
	}
	if a.MetadataHash != "" {
		mh, err := base64.StdEncoding.DecodeString(a.MetadataHash)
		if err != nil {
			return spec, fmt.Errorf("%w: metadata_hash is not base64: %v", shared.ErrInvalidFormat, err)
		}
		spec.MetadataHash = mh
	}

	authorities := []struct {
		name string
		raw  string
		dst  *address.Address
	}{
		{"manager", a.Manager, &spec.Manager},
		{"reserve", a.Reserve, &spec.Reserve},
		{"freeze", a.Freeze, &spec.Freeze},
		{"clawback", a.Clawback, &spec.Clawback},
	}
	for _, auth := range authorities {
		if auth.raw == "" {
			continue
		}
		addr, err := address.ParseAny(auth.raw)
		if err != nil {
			return spec, fmt.Errorf("%s: %w", auth.name, err)
		}
		*auth.dst = addr
	}

	if _, err := spec.Fields(); err != nil {
		return spec, err
	}
	return spec, nil
}
