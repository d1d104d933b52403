package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos-labs/sandnet/crypto"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
)

func TestLoad(t *testing.T) {
	acct, err := crypto.GenerateAccount()
	require.NoError(t, err)
	bech, err := acct.Address.Bech32()
	require.NoError(t, err)

	doc := `
assets:
  - total: 10
    decimals: 2
    unit_name: EIRI
    asset_name: Naki
    url: example.com
  - total: 1000000
    unit_name: GLD
    asset_name: Gold
    url: https://example.com/gold
    metadata_hash: AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=
    manager: ` + acct.Address.String() + `
    reserve: ` + bech + `
`
	path := filepath.Join(t.TempDir(), "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	specs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "Naki", specs[0].AssetName)
	assert.Equal(t, uint32(2), specs[0].Decimals)
	assert.True(t, specs[0].Manager.IsZero())

	assert.Equal(t, uint64(1000000), specs[1].Total)
	assert.Len(t, specs[1].MetadataHash, types.AssetMetadataHashSize)
	assert.Equal(t, acct.Address, specs[1].Manager)
	assert.Equal(t, acct.Address, specs[1].Reserve)
	assert.True(t, specs[1].Freeze.IsZero())
}

func TestParseRejects(t *testing.T) {
	cases := map[string]struct {
		doc  string
		kind error
	}{
		"empty":            {"", shared.ErrInvalidFormat},
		"no assets":        {"assets: []", shared.ErrInvalidFormat},
		"unknown key":      {"assets:\n  - total: 1\n    colour: red\n", shared.ErrInvalidFormat},
		"bad address":      {"assets:\n  - total: 1\n    manager: NOTANADDRESS\n", shared.ErrInvalidFormat},
		"bad metadata":     {"assets:\n  - total: 1\n    metadata_hash: '%%%'\n", shared.ErrInvalidFormat},
		"short metadata":   {"assets:\n  - total: 1\n    metadata_hash: AAEC\n", shared.ErrInvalidTransaction},
		"bad url":          {"assets:\n  - total: 1\n    url: 'not a url'\n", shared.ErrInvalidFormat},
		"long unit name":   {"assets:\n  - total: 1\n    unit_name: ABCDEFGHIJ\n", shared.ErrInvalidTransaction},
		"create w/o total": {"assets:\n  - asset_name: Nothing\n", shared.ErrInvalidTransaction},
		"many decimals":    {"assets:\n  - total: 1\n    decimals: 99\n", shared.ErrInvalidTransaction},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
