// Package submit runs one asset configuration end to end: find the wallet,
// resolve the sender, fetch parameters, build, sign and broadcast.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/thrylos-labs/sandnet/algod"
	"github.com/thrylos-labs/sandnet/crypto/address"
	"github.com/thrylos-labs/sandnet/kmd"
	"github.com/thrylos-labs/sandnet/store"
	"github.com/thrylos-labs/sandnet/transaction"
	"github.com/thrylos-labs/sandnet/types"
	"github.com/thrylos-labs/sandnet/utils"
)

// Step names a stage of the pipeline.
type Step string

const (
	StepLocateWallet  Step = "locate wallet"
	StepResolveSender Step = "resolve sender"
	StepFetchParams   Step = "fetch params"
	StepBuild         Step = "build transaction"
	StepSign          Step = "sign"
	StepBroadcast     Step = "broadcast"
	StepConfirm       Step = "confirm"
	StepRecord        Step = "record"
)

// StepError reports which step failed. errors.Is sees through it.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// WalletService is the part of the wallet daemon the pipeline uses.
type WalletService interface {
	FindWallet(ctx context.Context, name string) (kmd.Wallet, error)
	InitWalletHandle(ctx context.Context, walletID, password string) (string, error)
	ReleaseWalletHandle(ctx context.Context, handle string) error
	SignTransaction(ctx context.Context, handle, password string, tx types.Transaction) ([]byte, error)
}

// LedgerNode is the part of the ledger node the pipeline uses.
type LedgerNode interface {
	SuggestedParams(ctx context.Context) (types.SuggestedParams, error)
	SendRawTransaction(ctx context.Context, signed []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txid string, rounds uint64) (types.PendingTransaction, error)
}

// Request describes one submission.
type Request struct {
	WalletName     string
	WalletPassword string
	Account        string
	Asset          transaction.AssetSpec
	Note           []byte
	Policy         transaction.Policy

	// SenderAuthorities fills every unset authority address with the sender
	// when the request creates an asset. Reconfigure and destroy requests
	// are sent as given.
	SenderAuthorities bool

	// WaitRounds > 0 waits up to that many rounds for confirmation.
	WaitRounds uint64
}

// Result is what a successful run produced.
type Result struct {
	WalletID       string
	Sender         address.Address
	Params         types.SuggestedParams
	Transaction    types.Transaction
	TxID           string
	ConfirmedRound types.Round
	AssetIndex     types.AssetIndex
}

// Pipeline wires the services together. It holds no per-run state.
type Pipeline struct {
	wallets WalletService
	node    func(sender address.Address) LedgerNode
	journal *store.Journal
	now     func() time.Time
}

type Option func(*Pipeline)

// WithJournal records a receipt for every broadcast transaction.
func WithJournal(j *store.Journal) Option {
	return func(p *Pipeline) { p.journal = j }
}

// WithPool sends each sender's transactions to its pinned node.
func WithPool(pool *algod.Pool) Option {
	return func(p *Pipeline) {
		p.node = func(sender address.Address) LedgerNode { return pool.For(sender) }
	}
}

func NewPipeline(wallets WalletService, node LedgerNode, opts ...Option) *Pipeline {
	p := &Pipeline{
		wallets: wallets,
		node:    func(address.Address) LedgerNode { return node },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func fail(step Step, err error) error {
	utils.LogError(string(step), err)
	return &StepError{Step: step, Err: err}
}

// Run executes the steps in order, once. The first failure ends the run; no
// step is retried.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	wallet, err := p.wallets.FindWallet(ctx, req.WalletName)
	if err != nil {
		return nil, fail(StepLocateWallet, err)
	}
	handle, err := p.wallets.InitWalletHandle(ctx, wallet.ID, req.WalletPassword)
	if err != nil {
		return nil, fail(StepLocateWallet, err)
	}
	defer func() {
		if err := p.wallets.ReleaseWalletHandle(context.Background(), handle); err != nil {
			utils.LogError("release wallet handle", err)
		}
	}()
	utils.Log.Infof("Wallet Handle: opened on wallet %s (%s)", wallet.Name, wallet.ID)

	sender, err := address.FromString(req.Account)
	if err != nil {
		return nil, fail(StepResolveSender, err)
	}
	utils.Log.Infof("Sender: %s", sender)

	node := p.node(sender)
	params, err := node.SuggestedParams(ctx)
	if err != nil {
		return nil, fail(StepFetchParams, err)
	}
	utils.Log.Infof("Last round: %d", params.LastRound)

	spec := req.Asset
	if req.SenderAuthorities && spec.AssetID == 0 {
		spec = fillAuthorities(spec, sender)
	}
	tx, err := req.Policy.Builder(sender, params).
		Note(req.Note).
		AssetConfiguration(spec).
		Build()
	if err != nil {
		return nil, fail(StepBuild, err)
	}

	signed, err := p.wallets.SignTransaction(ctx, handle, req.WalletPassword, tx)
	if err != nil {
		return nil, fail(StepSign, err)
	}

	txid, err := node.SendRawTransaction(ctx, signed)
	if err != nil {
		return nil, fail(StepBroadcast, err)
	}
	utils.Log.Infof("Transaction ID: %s", txid)

	res := &Result{
		WalletID:    wallet.ID,
		Sender:      sender,
		Params:      params,
		Transaction: tx,
		TxID:        txid,
	}

	if p.journal != nil {
		if err := p.journal.Put(store.NewReceipt(txid, tx, p.now())); err != nil {
			return res, fail(StepRecord, err)
		}
	}

	if req.WaitRounds == 0 {
		return res, nil
	}
	info, err := node.WaitForConfirmation(ctx, txid, req.WaitRounds)
	if err != nil {
		return res, fail(StepConfirm, err)
	}
	res.ConfirmedRound = info.ConfirmedRound
	res.AssetIndex = info.AssetIndex
	utils.Log.Infof("Confirmed in round %d", info.ConfirmedRound)
	if info.AssetIndex != 0 {
		utils.Log.Infof("Asset index: %d", info.AssetIndex)
	}

	if p.journal != nil {
		if err := p.journal.MarkConfirmed(txid, info.ConfirmedRound, info.AssetIndex); err != nil {
			return res, fail(StepRecord, err)
		}
	}
	return res, nil
}

func fillAuthorities(spec transaction.AssetSpec, sender address.Address) transaction.AssetSpec {
	for _, a := range []*address.Address{&spec.Manager, &spec.Reserve, &spec.Freeze, &spec.Clawback} {
		if a.IsZero() {
			*a = sender
		}
	}
	return spec
}
