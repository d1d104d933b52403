// Command asa creates fungible assets through a wallet daemon and a ledger node.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/thrylos-labs/sandnet/algod"
	"github.com/thrylos-labs/sandnet/amount"
	"github.com/thrylos-labs/sandnet/config"
	"github.com/thrylos-labs/sandnet/kmd"
	"github.com/thrylos-labs/sandnet/manifest"
	"github.com/thrylos-labs/sandnet/store"
	"github.com/thrylos-labs/sandnet/submit"
	"github.com/thrylos-labs/sandnet/transaction"
	"github.com/thrylos-labs/sandnet/utils"
)

type options struct {
	envPath      string
	manifestPath string
	wait         int64
	fee          float64
	history      bool
}

func main() {
	envPath := flag.String("env", ".env", "Path to the environment file")
	manifestPath := flag.String("manifest", "", "YAML file listing the assets to create")
	wait := flag.Int64("wait", -1, "Rounds to wait for confirmation (overrides WAIT_ROUNDS)")
	fee := flag.Float64("fee", 0, "Flat fee in Algos (overrides FEE_MODE and FLAT_FEE)")
	history := flag.Bool("history", false, "Print the submission journal and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{envPath: *envPath, manifestPath: *manifestPath, wait: *wait, fee: *fee, history: *history}
	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// defaultAsset is created when no manifest is given.
func defaultAsset() transaction.AssetSpec {
	return transaction.AssetSpec{
		Total:     10,
		Decimals:  2,
		UnitName:  "EIRI",
		AssetName: "Naki",
		URL:       "example.com",
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.history {
		return printHistory(opts.envPath, out)
	}

	cfg, err := config.Load(opts.envPath)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		utils.ConfigureLogger(cfg.LogLevel, os.Getenv("SYSLOG_ENDPOINT"))
	}

	specs := []transaction.AssetSpec{defaultAsset()}
	if opts.manifestPath != "" {
		if specs, err = manifest.Load(opts.manifestPath); err != nil {
			return err
		}
	}

	waitRounds := cfg.WaitRounds
	if opts.wait >= 0 {
		if opts.wait > config.MaxWaitRounds {
			return fmt.Errorf("-wait must be at most %d", config.MaxWaitRounds)
		}
		waitRounds = uint64(opts.wait)
	}

	policy := transaction.Policy{ValidityWindow: cfg.ValidityWindow, Fee: feePolicy(cfg)}
	if opts.fee != 0 {
		fee, err := amount.NewAmount(opts.fee)
		if err != nil {
			return fmt.Errorf("invalid -fee: %v", err)
		}
		if fee < config.MinTxnFee {
			return fmt.Errorf("-fee must be at least %s", amount.MicroAlgos(config.MinTxnFee))
		}
		policy.Fee = transaction.FlatFee(fee)
	}

	pipeline, journal, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	for _, spec := range specs {
		res, err := pipeline.Run(ctx, submit.Request{
			WalletName:        cfg.WalletName,
			WalletPassword:    cfg.WalletPassword,
			Account:           cfg.Account,
			Asset:             spec,
			Policy:            policy,
			SenderAuthorities: true,
			WaitRounds:        waitRounds,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Transaction ID: %s\n", res.TxID)
		if res.ConfirmedRound > 0 {
			fmt.Fprintf(out, "Confirmed round: %d\n", res.ConfirmedRound)
		}
		if res.AssetIndex > 0 {
			fmt.Fprintf(out, "Asset index: %d\n", res.AssetIndex)
		}
	}
	return nil
}

func feePolicy(cfg *config.Config) transaction.FeePolicy {
	if cfg.FeeMode == config.FeeModeSuggested {
		return transaction.SuggestedFee{}
	}
	return transaction.FlatFee(cfg.FlatFee)
}

func newPipeline(cfg *config.Config) (*submit.Pipeline, *store.Journal, error) {
	wallets, err := kmd.NewClient(cfg.KMDURL, cfg.KMDToken, kmd.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		return nil, nil, err
	}

	var nodes []*algod.Client
	for _, u := range cfg.AlgodURLs() {
		nodes = append(nodes, algod.NewClient(u, cfg.AlgodToken,
			algod.WithTimeout(cfg.HTTPTimeout),
			algod.WithRateLimit(cfg.AlgodRPS)))
	}

	var pipelineOpts []submit.Option
	if len(nodes) > 1 {
		pool, err := algod.NewPool(nodes...)
		if err != nil {
			return nil, nil, err
		}
		pipelineOpts = append(pipelineOpts, submit.WithPool(pool))
	}

	var journal *store.Journal
	if cfg.JournalDir != "" {
		if journal, err = store.OpenJournal(cfg.JournalDir); err != nil {
			return nil, nil, err
		}
		pipelineOpts = append(pipelineOpts, submit.WithJournal(journal))
	}

	return submit.NewPipeline(wallets, nodes[0], pipelineOpts...), journal, nil
}

func printHistory(envPath string, out io.Writer) error {
	if err := config.LoadEnvFile(envPath); err != nil {
		return err
	}
	dir := os.Getenv("JOURNAL_DIR")
	if dir == "" {
		return errors.New("JOURNAL_DIR is not set; there is no journal to read")
	}
	journal, err := store.OpenJournal(dir)
	if err != nil {
		return err
	}
	defer journal.Close()

	receipts, err := journal.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED\tTXID\tTYPE\tASSET\tFEE\tCONFIRMED\tINDEX")
	for _, r := range receipts {
		confirmed := "pending"
		if r.Confirmed() {
			confirmed = fmt.Sprintf("%d", r.ConfirmedRound)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.SubmittedAt.Format("2006-01-02 15:04:05"), r.TxID, r.Type, r.AssetName,
			r.Fee.Format(amount.Algo), confirmed, r.AssetIndex)
	}
	return tw.Flush()
}
