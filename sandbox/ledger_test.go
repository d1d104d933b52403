package sandbox

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrylos-labs/sandnet/crypto"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/transaction"
	"github.com/thrylos-labs/sandnet/types"
)

func testLedger(t *testing.T) (*Ledger, crypto.Account) {
	t.Helper()
	acct, err := crypto.GenerateAccount()
	require.NoError(t, err)
	return NewLedger(DefaultLedgerConfig("algod-token")), acct
}

func nakiCreate(t *testing.T, l *Ledger, acct crypto.Account, policy transaction.Policy) types.Transaction {
	t.Helper()
	spec := transaction.AssetSpec{
		Total:     10,
		Decimals:  2,
		UnitName:  "EIRI",
		AssetName: "Naki",
		URL:       "example.com",
	}.WithAuthorities(acct.Address)
	tx, err := transaction.MakeAssetCreate(acct.Address, spec, l.SuggestedParams(), policy)
	require.NoError(t, err)
	return tx
}

func signed(t *testing.T, acct crypto.Account, tx types.Transaction) []byte {
	t.Helper()
	stx, err := crypto.SignTransaction(acct, tx)
	require.NoError(t, err)
	return stx.Marshal()
}

var defaultPolicy = transaction.Policy{ValidityWindow: 1000, Fee: transaction.FlatFee(100_000)}

func TestLedgerAcceptsAndCommits(t *testing.T) {
	l, acct := testLedger(t)
	tx := nakiCreate(t, l, acct, defaultPolicy)

	txid, err := l.Submit(signed(t, acct, tx))
	require.NoError(t, err)
	assert.Equal(t, tx.ID(), txid)

	info, ok := l.Pending(txid)
	require.True(t, ok)
	assert.Zero(t, info.ConfirmedRound)

	round := l.AdvanceRound()
	info, _ = l.Pending(txid)
	assert.Equal(t, round, info.ConfirmedRound)
	assert.Equal(t, types.AssetIndex(firstAssetIndex), info.AssetIndex)

	params, ok := l.Asset(info.AssetIndex)
	require.True(t, ok)
	assert.Equal(t, "Naki", params.AssetName)
	assert.Equal(t, acct.Address, params.Manager)
}

func TestLedgerRejections(t *testing.T) {
	l, acct := testLedger(t)
	other, err := crypto.GenerateAccount()
	require.NoError(t, err)

	good := nakiCreate(t, l, acct, defaultPolicy)

	wrongGenesis := good
	wrongGenesis.GenesisHash = hash.Sum([]byte("another network"))

	lowFee := nakiCreate(t, l, acct, transaction.Policy{ValidityWindow: 1000, Fee: transaction.FlatFee(1)})

	future := good
	future.FirstValid = l.Round() + 10
	future.LastValid = future.FirstValid + 10

	dead := good
	dead.FirstValid = 0
	dead.LastValid = 0

	badSig := signed(t, acct, good)
	badSig[len(badSig)/2] ^= 0xff

	forged, err := crypto.SignTransaction(acct, good)
	require.NoError(t, err)
	otherStx, err := crypto.SignTransaction(other, func() types.Transaction {
		tx := good
		tx.Sender = other.Address
		return tx
	}())
	require.NoError(t, err)
	forged.Sig = otherStx.Sig

	cases := map[string][]byte{
		"garbage":         []byte("not msgpack"),
		"wrong genesis":   signed(t, acct, wrongGenesis),
		"fee below min":   signed(t, acct, lowFee),
		"not yet valid":   signed(t, acct, future),
		"expired":         signed(t, acct, dead),
		"corrupted bytes": badSig,
		"wrong signer":    forged.Marshal(),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := l.Submit(raw)
			require.ErrorIs(t, err, shared.ErrRejectedByNetwork)
		})
	}
	assert.Zero(t, l.BroadcastCount())
}

func TestLedgerRejectsDuplicates(t *testing.T) {
	l, acct := testLedger(t)
	raw := signed(t, acct, nakiCreate(t, l, acct, defaultPolicy))

	_, err := l.Submit(raw)
	require.NoError(t, err)
	_, err = l.Submit(raw)
	require.ErrorIs(t, err, shared.ErrRejectedByNetwork)
	assert.Contains(t, err.Error(), "already in ledger")
	assert.Equal(t, 1, l.BroadcastCount())
}

func TestLedgerForgetsDeadTransactions(t *testing.T) {
	l, acct := testLedger(t)
	raw := signed(t, acct, nakiCreate(t, l, acct, transaction.Policy{ValidityWindow: 2, Fee: transaction.FlatFee(100_000)}))

	txid, err := l.Submit(raw)
	require.NoError(t, err)
	l.AdvanceRound()
	info, ok := l.Pending(txid)
	require.True(t, ok)
	require.NotZero(t, info.ConfirmedRound)

	for i := 0; i < retainRounds+3; i++ {
		l.AdvanceRound()
	}
	_, ok = l.Pending(txid)
	assert.False(t, ok)

	_, err = l.Submit(raw)
	require.ErrorIs(t, err, shared.ErrRejectedByNetwork)
	assert.Contains(t, err.Error(), "txn dead")
	assert.Equal(t, 1, l.BroadcastCount())
}

func TestLedgerReconfigureAndDestroy(t *testing.T) {
	l, acct := testLedger(t)
	other, err := crypto.GenerateAccount()
	require.NoError(t, err)

	txid, err := l.Submit(signed(t, acct, nakiCreate(t, l, acct, defaultPolicy)))
	require.NoError(t, err)
	l.AdvanceRound()
	info, _ := l.Pending(txid)
	idx := info.AssetIndex

	// only the manager may reconfigure
	notManager, err := transaction.MakeAssetReconfigure(other.Address, idx, other.Address, other.Address, other.Address, other.Address, l.SuggestedParams(), defaultPolicy)
	require.NoError(t, err)
	_, err = l.Submit(signed(t, other, notManager))
	require.ErrorIs(t, err, shared.ErrRejectedByNetwork)

	reconf, err := transaction.MakeAssetReconfigure(acct.Address, idx, other.Address, acct.Address, acct.Address, acct.Address, l.SuggestedParams(), defaultPolicy)
	require.NoError(t, err)
	_, err = l.Submit(signed(t, acct, reconf))
	require.NoError(t, err)
	l.AdvanceRound()

	params, ok := l.Asset(idx)
	require.True(t, ok)
	assert.Equal(t, other.Address, params.Manager)
	assert.Equal(t, "Naki", params.AssetName)

	destroy, err := transaction.MakeAssetDestroy(other.Address, idx, l.SuggestedParams(), defaultPolicy)
	require.NoError(t, err)
	_, err = l.Submit(signed(t, other, destroy))
	require.NoError(t, err)
	l.AdvanceRound()

	_, ok = l.Asset(idx)
	assert.False(t, ok)
}

func TestLedgerHTTP(t *testing.T) {
	l, acct := testLedger(t)
	srv := httptest.NewServer(l)
	defer srv.Close()

	// API routes require the token, metrics do not
	resp, err := http.Get(srv.URL + "/v2/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, err = l.Submit(signed(t, acct, nakiCreate(t, l, acct, defaultPolicy)))
	require.NoError(t, err)
	_, err = l.Submit([]byte("junk"))
	require.Error(t, err)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sandnet_ledger_submissions_total{result="accepted"} 1`)
	assert.Contains(t, string(body), `sandnet_ledger_submissions_total{result="rejected"} 1`)
}
