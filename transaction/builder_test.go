package transaction

import (
	"crypto/ed25519"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/types"
)

func testAddress(t *testing.T, seed int64) address.Address {
	t.Helper()
	pk, _, err := ed25519.GenerateKey(rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	a, err := address.FromPublicKey(pk)
	require.NoError(t, err)
	return a
}

func testParams() types.SuggestedParams {
	gh := hash.Sum([]byte("sandnet genesis"))
	return types.SuggestedParams{
		ConsensusVersion: "sandnet/v1",
		Fee:              0,
		GenesisHash:      gh[:],
		GenesisID:        "sandnet-v1",
		LastRound:        42,
		MinFee:           1000,
	}
}

func nakiSpec(sender address.Address) AssetSpec {
	return AssetSpec{
		Total:     10,
		Decimals:  2,
		UnitName:  "EIRI",
		AssetName: "Naki",
		URL:       "example.com",
	}.WithAuthorities(sender)
}

func TestBuildAssetCreate(t *testing.T) {
	sender := testAddress(t, 1)
	params := testParams()

	tx, err := New().
		Sender(sender).
		SuggestedParams(params, 1000).
		Fee(100_000).
		AssetConfiguration(nakiSpec(sender)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, types.AssetConfigTx, tx.Type)
	assert.Equal(t, types.Round(42), tx.FirstValid)
	assert.Equal(t, types.Round(1042), tx.LastValid)
	assert.Equal(t, "sandnet-v1", tx.GenesisID)
	assert.Equal(t, amount.MicroAlgos(100_000), tx.Fee)
	assert.Equal(t, types.AssetIndex(0), tx.ConfigAsset)
	assert.Equal(t, "Naki", tx.AssetParams.AssetName)
	assert.Equal(t, sender, tx.AssetParams.Clawback)
	assert.Equal(t, [32]byte{}, tx.AssetParams.MetadataHash)
}

func TestBuildIsDeterministic(t *testing.T) {
	sender := testAddress(t, 1)
	build := func() types.Transaction {
		tx, err := MakeAssetCreate(sender, nakiSpec(sender), testParams(), Policy{ValidityWindow: 1000, Fee: FlatFee(100_000)})
		require.NoError(t, err)
		return tx
	}
	first, second := build(), build()
	require.Equal(t, first.Marshal(), second.Marshal())
}

func TestValidityWindowOrdering(t *testing.T) {
	for _, window := range []uint64{0, 1, 500, 1000} {
		for _, round := range []types.Round{0, 1, 1 << 40, math.MaxUint64 - 1000} {
			first, last, err := ValidityWindow(round, window)
			require.NoError(t, err)
			require.LessOrEqual(t, first, last)
			require.Equal(t, window, uint64(last-first))
		}
	}

	_, _, err := ValidityWindow(math.MaxUint64-10, 11)
	require.ErrorIs(t, err, shared.ErrInvalidTransaction)

	_, _, err = ValidityWindow(0, 1001)
	require.ErrorIs(t, err, shared.ErrInvalidTransaction)
}

func TestBuildRejectsInvertedWindow(t *testing.T) {
	sender := testAddress(t, 1)
	_, err := New().
		Sender(sender).
		GenesisHash(hash.Sum([]byte("g"))).
		FirstValid(100).
		LastValid(99).
		AssetConfiguration(nakiSpec(sender)).
		Build()
	require.ErrorIs(t, err, shared.ErrInvalidTransaction)
}

func TestBuildValidation(t *testing.T) {
	sender := testAddress(t, 1)
	params := testParams()

	cases := map[string]*Builder{
		"no sender": New().SuggestedParams(params, 10).AssetConfiguration(nakiSpec(sender)),
		"no type":   New().Sender(sender).SuggestedParams(params, 10),
		"no genesis": New().Sender(sender).FirstValid(1).LastValid(2).
			AssetConfiguration(nakiSpec(sender)),
		"long unit name": New().Sender(sender).SuggestedParams(params, 10).
			AssetConfiguration(AssetSpec{Total: 1, UnitName: "ABCDEFGHI"}),
		"bad metadata hash": New().Sender(sender).SuggestedParams(params, 10).
			AssetConfiguration(AssetSpec{Total: 1, MetadataHash: []byte{1, 2, 3}}),
		"create without total": New().Sender(sender).SuggestedParams(params, 10).
			AssetConfiguration(AssetSpec{AssetName: "x"}),
		"payment without receiver": New().Sender(sender).SuggestedParams(params, 10).
			Payment(address.ZeroAddress(), 5),
		"bad genesis hash": New().Sender(sender).
			SuggestedParams(types.SuggestedParams{GenesisHash: []byte{1}}, 10).
			AssetConfiguration(nakiSpec(sender)),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := b.Build()
			require.ErrorIs(t, err, shared.ErrInvalidTransaction)
		})
	}
}

func TestSuggestedFee(t *testing.T) {
	sender := testAddress(t, 1)
	params := testParams()

	// zero per-byte fee falls back to the minimum
	tx, err := MakeAssetCreate(sender, nakiSpec(sender), params, Policy{ValidityWindow: 1000})
	require.NoError(t, err)
	require.Equal(t, amount.MicroAlgos(1000), tx.Fee)

	params.Fee = 10
	tx, err = MakeAssetCreate(sender, nakiSpec(sender), params, Policy{ValidityWindow: 1000, Fee: SuggestedFee{}})
	require.NoError(t, err)
	unfeed := tx
	unfeed.Fee = 0
	require.Equal(t, amount.MicroAlgos(10*EstimateSize(unfeed)), tx.Fee)
	require.Greater(t, tx.Fee, params.MinFee)
}

func TestReconfigureAndDestroy(t *testing.T) {
	sender := testAddress(t, 1)
	next := testAddress(t, 2)
	params := testParams()
	policy := Policy{ValidityWindow: 100, Fee: FlatFee(1000)}

	tx, err := MakeAssetReconfigure(sender, 7, next, next, address.ZeroAddress(), address.ZeroAddress(), params, policy)
	require.NoError(t, err)
	require.Equal(t, types.AssetIndex(7), tx.ConfigAsset)
	require.Equal(t, next, tx.AssetParams.Manager)
	require.True(t, tx.AssetParams.Freeze.IsZero())

	tx, err = MakeAssetDestroy(sender, 7, params, policy)
	require.NoError(t, err)
	require.True(t, tx.AssetParams.IsEmpty())

	_, err = MakeAssetDestroy(sender, 0, params, policy)
	require.ErrorIs(t, err, shared.ErrInvalidTransaction)
}

func TestMakePayment(t *testing.T) {
	sender := testAddress(t, 1)
	receiver := testAddress(t, 2)

	tx, err := MakePayment(sender, receiver, 5_000, testParams(), Policy{ValidityWindow: 10, Fee: FlatFee(1000)})
	require.NoError(t, err)
	require.Equal(t, types.PaymentTx, tx.Type)
	require.Equal(t, receiver, tx.Receiver)
	require.Equal(t, amount.MicroAlgos(5_000), tx.Amount)
}
