package types

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
)

func testAddress(t *testing.T, seed int64) address.Address {
	t.Helper()
	pk, _, err := ed25519.GenerateKey(rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	a, err := address.FromPublicKey(pk)
	require.NoError(t, err)
	return a
}

func assetCreateTxn(t *testing.T) Transaction {
	sender := testAddress(t, 1)
	return Transaction{
		Type: AssetConfigTx,
		Header: Header{
			Sender:      sender,
			Fee:         100_000,
			FirstValid:  10,
			LastValid:   1010,
			GenesisID:   "sandnet-v1",
			GenesisHash: hash.Sum([]byte("genesis")),
		},
		AssetConfigTxnFields: AssetConfigTxnFields{
			AssetParams: AssetParams{
				Total:     10,
				Decimals:  2,
				UnitName:  "EIRI",
				AssetName: "Naki",
				URL:       "example.com",
				Manager:   sender,
				Reserve:   sender,
				Freeze:    sender,
				Clawback:  sender,
			},
		},
	}
}

func TestTransactionEncodingIsStable(t *testing.T) {
	tx := assetCreateTxn(t)

	first := tx.Marshal()
	second := tx.Marshal()
	require.Equal(t, first, second)

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(first))
	require.Equal(t, tx.ID(), decoded.ID())
	require.Equal(t, tx.AssetParams, decoded.AssetParams)
	require.Equal(t, tx.Sender, decoded.Sender)
}

func TestTransactionOmitsEmptyFields(t *testing.T) {
	tx := assetCreateTxn(t)
	encoded := tx.Marshal()

	// payment fields, note, caid and metadata hash are empty and must not be written
	require.NotContains(t, string(encoded), "rcv")
	require.NotContains(t, string(encoded), "note")
	require.NotContains(t, string(encoded), "caid")
	require.NotContains(t, string(encoded), "\xa2am")
	require.Contains(t, string(encoded), "apar")
}

func TestTransactionIDChangesWithContent(t *testing.T) {
	tx := assetCreateTxn(t)
	id := tx.ID()
	require.Len(t, id, 52)

	tx.Fee++
	require.NotEqual(t, id, tx.ID())
}

func TestSignedTxnIDMatchesTransaction(t *testing.T) {
	tx := assetCreateTxn(t)
	stx := SignedTxn{Txn: tx}
	stx.Sig[0] = 1

	var decoded SignedTxn
	require.NoError(t, decoded.Unmarshal(stx.Marshal()))
	require.Equal(t, tx.ID(), decoded.ID())
	require.Equal(t, stx.Sig, decoded.Sig)
}

func TestAssetParamsValidate(t *testing.T) {
	ap := AssetParams{UnitName: "EIRI", AssetName: "Naki", Decimals: 2}
	require.NoError(t, ap.Validate())

	ap.UnitName = "TOOLONGUNIT"
	require.ErrorIs(t, ap.Validate(), shared.ErrInvalidTransaction)

	ap = AssetParams{Decimals: 20}
	require.ErrorIs(t, ap.Validate(), shared.ErrInvalidTransaction)

	require.True(t, AssetParams{}.IsEmpty())
}

func TestMetadataHashFromBytes(t *testing.T) {
	h, err := MetadataHashFromBytes(nil)
	require.NoError(t, err)
	require.Equal(t, [AssetMetadataHashSize]byte{}, h)

	_, err = MetadataHashFromBytes(make([]byte, 32))
	require.NoError(t, err)

	_, err = MetadataHashFromBytes(make([]byte, 16))
	require.ErrorIs(t, err, shared.ErrInvalidTransaction)
}
