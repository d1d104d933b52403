package sandbox

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thrylos-labs/sandnet/algod"
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/crypto"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/crypto/hash"
	"github.com/thrylos-labs/sandnet/shared"
	"github.com/thrylos-labs/sandnet/transaction"
	"github.com/thrylos-labs/sandnet/types"
	"github.com/thrylos-labs/sandnet/utils"
	"github.com/willf/bloom"
)

const (
	firstAssetIndex   = 1001
	maxTxnBytes       = 64 * 1024
	expectedTxns      = 100_000
	falsePositiveRate = 0.001
	// rounds a dead transaction stays visible to pending lookups
	retainRounds = 10
)

// LedgerConfig fixes the network identity and fee schedule of a Ledger.
type LedgerConfig struct {
	APIToken         string
	GenesisID        string
	GenesisHash      hash.Digest
	ConsensusVersion string
	FeePerByte       amount.MicroAlgos
	MinFee           amount.MicroAlgos
	StartRound       types.Round
}

// DefaultLedgerConfig returns the configuration cmd/sandnet runs with.
func DefaultLedgerConfig(apiToken string) LedgerConfig {
	return LedgerConfig{
		APIToken:         apiToken,
		GenesisID:        "sandnet-v1",
		GenesisHash:      hash.Sum([]byte("sandnet-v1 genesis")),
		ConsensusVersion: "sandnet/v1",
		FeePerByte:       0,
		MinFee:           config.MinTxnFee,
		StartRound:       1,
	}
}

type assetRecord struct {
	params  types.AssetParams
	creator address.Address
}

type txnRecord struct {
	stx            types.SignedTxn
	confirmedRound types.Round
	poolError      string
	assetIndex     types.AssetIndex
}

// Ledger is a ledger node double. It accepts signed transactions into a
// pool and commits the pool each time a round is produced.
type Ledger struct {
	mu          sync.Mutex
	cfg         LedgerConfig
	round       types.Round
	lastRoundAt time.Time
	nextAsset   types.AssetIndex
	assets      map[types.AssetIndex]*assetRecord
	txns        map[string]*txnRecord
	pool        []string
	accepted    int
	// seen holds every accepted txid; txns only those still within their window
	seen *bloom.BloomFilter

	registry     *prometheus.Registry
	submissions  *prometheus.CounterVec
	currentRound prometheus.Gauge

	router *mux.Router
}

func NewLedger(cfg LedgerConfig) *Ledger {
	l := &Ledger{
		cfg:         cfg,
		round:       cfg.StartRound,
		lastRoundAt: time.Now(),
		nextAsset:   firstAssetIndex,
		assets:      make(map[types.AssetIndex]*assetRecord),
		txns:        make(map[string]*txnRecord),
		seen:        bloom.NewWithEstimates(expectedTxns, falsePositiveRate),
		registry:    prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandnet",
			Subsystem: "ledger",
			Name:      "submissions_total",
			Help:      "Broadcast transactions by outcome.",
		}, []string{"result"}),
		currentRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandnet",
			Subsystem: "ledger",
			Name:      "round",
			Help:      "Latest produced round.",
		}),
	}
	l.registry.MustRegister(l.submissions, l.currentRound)
	l.currentRound.Set(float64(l.round))
	l.router = l.setupRoutes()
	return l
}

func (l *Ledger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.router.ServeHTTP(w, r)
}

// Registry exposes the ledger's metrics.
func (l *Ledger) Registry() *prometheus.Registry {
	return l.registry
}

func (l *Ledger) setupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(l.registry, promhttp.HandlerOpts{})).Methods("GET")

	api := r.PathPrefix("/v2").Subrouter()
	api.Use(requestLogger("algod"), tokenAuth(algod.TokenHeader, l.cfg.APIToken))
	api.HandleFunc("/transactions/params", l.handleParams).Methods("GET")
	api.HandleFunc("/status", l.handleStatus).Methods("GET")
	api.HandleFunc("/status/wait-for-block-after/{round:[0-9]+}", l.handleWaitForBlock).Methods("GET")
	api.HandleFunc("/transactions", l.handleBroadcast).Methods("POST")
	api.HandleFunc("/transactions/pending/{txid}", l.handlePending).Methods("GET")
	return r
}

// SuggestedParams is what the node tells clients to build against.
func (l *Ledger) SuggestedParams() types.SuggestedParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types.SuggestedParams{
		ConsensusVersion: l.cfg.ConsensusVersion,
		Fee:              l.cfg.FeePerByte,
		GenesisHash:      l.cfg.GenesisHash.Bytes(),
		GenesisID:        l.cfg.GenesisID,
		LastRound:        l.round,
		MinFee:           l.cfg.MinFee,
	}
}

func (l *Ledger) Status() types.NodeStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked()
}

func (l *Ledger) statusLocked() types.NodeStatus {
	return types.NodeStatus{
		LastRound:          l.round,
		LastVersion:        l.cfg.ConsensusVersion,
		TimeSinceLastRound: int64(time.Since(l.lastRoundAt)),
	}
}

// Round returns the latest produced round.
func (l *Ledger) Round() types.Round {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.round
}

// BroadcastCount is the number of transactions accepted into the pool.
func (l *Ledger) BroadcastCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepted
}

// Asset returns the current parameters of an asset.
func (l *Ledger) Asset(idx types.AssetIndex) (types.AssetParams, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.assets[idx]
	if !ok {
		return types.AssetParams{}, false
	}
	return a.params, true
}

// Submit checks a msgpack-encoded signed transaction and adds it to the pool.
// Errors wrap shared.ErrRejectedByNetwork.
func (l *Ledger) Submit(raw []byte) (string, error) {
	txid, err := l.submit(raw)
	if err != nil {
		l.submissions.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: %v", shared.ErrRejectedByNetwork, err)
	}
	l.submissions.WithLabelValues("accepted").Inc()
	return txid, nil
}

func (l *Ledger) submit(raw []byte) (string, error) {
	var stx types.SignedTxn
	if err := stx.Unmarshal(raw); err != nil {
		return "", fmt.Errorf("could not decode signed transaction: %v", err)
	}
	if err := crypto.VerifySignedTxn(stx); err != nil {
		return "", err
	}
	tx := stx.Txn
	if err := transaction.Validate(tx); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.GenesisHash != l.cfg.GenesisHash {
		return "", fmt.Errorf("genesis hash %s does not match %s", tx.GenesisHash, l.cfg.GenesisHash)
	}
	if tx.GenesisID != "" && tx.GenesisID != l.cfg.GenesisID {
		return "", fmt.Errorf("genesis id %q does not match %q", tx.GenesisID, l.cfg.GenesisID)
	}
	next := l.round + 1
	if tx.FirstValid > next {
		return "", fmt.Errorf("txn not yet valid: first valid %d, next round %d", tx.FirstValid, next)
	}
	if tx.LastValid < next {
		return "", fmt.Errorf("txn dead: last valid %d, next round %d", tx.LastValid, next)
	}
	if tx.Fee < l.cfg.MinFee {
		return "", fmt.Errorf("fee %d below minimum %d", tx.Fee, l.cfg.MinFee)
	}
	if tx.Type == types.AssetConfigTx {
		if err := l.checkAssetConfigLocked(tx); err != nil {
			return "", err
		}
	}

	txid := stx.ID()
	if l.seen.TestString(txid) {
		if _, dup := l.txns[txid]; dup {
			return "", fmt.Errorf("transaction already in ledger: %s", txid)
		}
	}
	l.seen.AddString(txid)
	l.txns[txid] = &txnRecord{stx: stx}
	l.accepted++
	l.pool = append(l.pool, txid)
	utils.Log.Debugf("sandbox algod accepted %s into pool (round %d)", txid, l.round)
	return txid, nil
}

func (l *Ledger) checkAssetConfigLocked(tx types.Transaction) error {
	if tx.ConfigAsset == 0 {
		if tx.AssetParams.Total == 0 {
			return errors.New("asset creation needs a non-zero total")
		}
		return nil
	}
	a, ok := l.assets[tx.ConfigAsset]
	if !ok {
		return fmt.Errorf("asset %d does not exist", tx.ConfigAsset)
	}
	if a.params.Manager.IsZero() || a.params.Manager != tx.Sender {
		return fmt.Errorf("sender %s is not the manager of asset %d", tx.Sender, tx.ConfigAsset)
	}
	return nil
}

// AdvanceRound produces one round, committing every pooled transaction that
// is still valid in it.
func (l *Ledger) AdvanceRound() types.Round {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.advanceLocked()
}

func (l *Ledger) advanceLocked() types.Round {
	l.round++
	l.lastRoundAt = time.Now()
	l.currentRound.Set(float64(l.round))

	for _, txid := range l.pool {
		rec := l.txns[txid]
		tx := rec.stx.Txn
		if tx.LastValid < l.round {
			rec.poolError = "transaction expired before it could be committed"
			continue
		}
		if tx.Type == types.AssetConfigTx {
			if err := l.applyAssetConfigLocked(rec); err != nil {
				rec.poolError = err.Error()
				continue
			}
		}
		rec.confirmedRound = l.round
	}
	l.pool = l.pool[:0]
	l.pruneLocked()
	return l.round
}

// pruneLocked forgets transactions whose last valid round passed more than
// retainRounds ago. A replay of one of them is refused by the validity check.
func (l *Ledger) pruneLocked() {
	for txid, rec := range l.txns {
		if last := rec.stx.Txn.LastValid; last < l.round && l.round-last > retainRounds {
			delete(l.txns, txid)
		}
	}
}

func (l *Ledger) applyAssetConfigLocked(rec *txnRecord) error {
	tx := rec.stx.Txn
	if err := l.checkAssetConfigLocked(tx); err != nil {
		return err
	}
	switch {
	case tx.ConfigAsset == 0:
		idx := l.nextAsset
		l.nextAsset++
		l.assets[idx] = &assetRecord{params: tx.AssetParams, creator: tx.Sender}
		rec.assetIndex = idx
	case tx.AssetParams.IsEmpty():
		delete(l.assets, tx.ConfigAsset)
	default:
		// only the authorities are mutable
		a := l.assets[tx.ConfigAsset]
		a.params.Manager = tx.AssetParams.Manager
		a.params.Reserve = tx.AssetParams.Reserve
		a.params.Freeze = tx.AssetParams.Freeze
		a.params.Clawback = tx.AssetParams.Clawback
	}
	return nil
}

// Pending reports the state of a transaction the ledger has seen.
func (l *Ledger) Pending(txid string) (types.PendingTransaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.txns[txid]
	if !ok {
		return types.PendingTransaction{}, false
	}
	return types.PendingTransaction{
		ConfirmedRound: rec.confirmedRound,
		PoolError:      rec.poolError,
		AssetIndex:     rec.assetIndex,
	}, true
}

func (l *Ledger) handleParams(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, l.SuggestedParams())
}

func (l *Ledger) handleStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, l.Status())
}

// handleWaitForBlock produces rounds on demand instead of waiting for them.
func (l *Ledger) handleWaitForBlock(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.ParseUint(mux.Vars(r)["round"], 10, 64)
	if err != nil {
		shared.SendErrorResponse(w, "invalid round: "+err.Error(), http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	if l.round <= types.Round(round) {
		if types.Round(round)-l.round > config.MaxWaitRounds {
			l.mu.Unlock()
			shared.SendErrorResponse(w, "round is too far in the future", http.StatusBadRequest)
			return
		}
		for l.round <= types.Round(round) {
			l.advanceLocked()
		}
	}
	status := l.statusLocked()
	l.mu.Unlock()

	shared.WriteJSON(w, http.StatusOK, status)
}

func (l *Ledger) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTxnBytes))
	if err != nil {
		shared.SendErrorResponse(w, "could not read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	txid, err := l.Submit(raw)
	if err != nil {
		shared.SendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	shared.WriteJSON(w, http.StatusOK, types.TransactionID{TxID: txid})
}

func (l *Ledger) handlePending(w http.ResponseWriter, r *http.Request) {
	info, ok := l.Pending(mux.Vars(r)["txid"])
	if !ok {
		shared.SendErrorResponse(w, "txn not found", http.StatusNotFound)
		return
	}
	shared.WriteJSON(w, http.StatusOK, info)
}
