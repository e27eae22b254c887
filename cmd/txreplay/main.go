package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rumor-ml/commons.systems/txreplay/internal/config"
	"github.com/rumor-ml/commons.systems/txreplay/internal/diag"
	"github.com/rumor-ml/commons.systems/txreplay/internal/output"
	"github.com/rumor-ml/commons.systems/txreplay/internal/registry"
	"github.com/rumor-ml/commons.systems/txreplay/internal/report"
	"github.com/rumor-ml/commons.systems/txreplay/internal/runner"
	"github.com/rumor-ml/commons.systems/txreplay/internal/scanner"
	"github.com/rumor-ml/commons.systems/txreplay/internal/store"
	"github.com/rumor-ml/commons.systems/txreplay/internal/ui"
	"github.com/rumor-ml/commons.systems/txreplay/internal/validate"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Core CLI flags
	inputPath = flag.String("input", "", "Event file or directory of event files (required)")
	verbose   = flag.Bool("verbose", false, "Show detailed replay logs")

	// Output flags
	outputFile = flag.String("output", "", "Output file (default: stdout)")
	formatFlag = flag.String("format", "", "Output format: csv,json (default: from config)")
	dumpTxns   = flag.Bool("dump-transactions", false, "Also write the transaction log")

	// Store flags
	configFile = flag.String("config", "", "Configuration file")
	storeFlag  = flag.String("store", "", "Store backend: memory,sqlite,firestore (default: from config)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `txreplay - Replay financial event streams into account snapshots

Usage:
  txreplay [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Replay one event file to stdout
  txreplay -input transactions.csv

  # Replay a directory of statements into sqlite, snapshot to file
  txreplay -input ~/statements -store sqlite -output accounts.csv

  # JSON snapshot plus the transaction log
  txreplay -input transactions.csv -format json -dump-transactions

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("txreplay version %s\n", version)
		os.Exit(0)
	}

	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	var sink diag.Sink = diag.Noop{}
	if *verbose {
		sink = diag.Stderr{}
	}

	// Step 1: find the event files.
	if !*verbose {
		ui.Header("Replaying Financial Events")
		ui.Step(1, 4, "Scanning input")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning input: %s\n", *inputPath)
	}

	files, err := scanner.New(*inputPath).Scan()
	if err != nil {
		return fmt.Errorf("failed to scan input %s: %w", *inputPath, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no event files found in %s\n\nPlease check:\n  - The path is correct\n  - Files have supported extensions (.csv, .ofx, .qfx)\n  - You have read permissions on the directory and files", *inputPath)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Found %d event files\n", len(files))
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
	} else {
		ui.Success(fmt.Sprintf("Found %d event files", len(files)))
	}

	reg := registry.New()
	if *verbose {
		fmt.Fprintf(os.Stderr, "Registered sources: %v\n", reg.ListSources())
	}

	// Step 2: open the store.
	if !*verbose {
		ui.Step(2, 4, fmt.Sprintf("Opening %s store", cfg.Store.Backend))
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", closeErr)
		}
	}()

	// Step 3: replay every file into the store, in scan order.
	if !*verbose {
		ui.Step(3, 4, "Replaying events")
	}
	r := runner.New(st, sink)
	stats := runner.NewStats()
	for _, path := range files {
		fileStats, err := replayFile(ctx, r, reg, path)
		if err != nil {
			return fmt.Errorf("replay of %s failed: %w", path, err)
		}
		stats.Merge(fileStats)
		if *verbose {
			fmt.Fprintf(os.Stderr, "Replayed %s: %d events, %d applied, %d rejected\n",
				path, fileStats.Events, fileStats.Applied, fileStats.Rejected)
		}
	}

	clients, err := st.DumpClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to dump clients: %w", err)
	}
	txs, err := st.DumpTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to dump transactions: %w", err)
	}

	// Step 4: validate and write the snapshot.
	if !*verbose {
		ui.Step(4, 4, "Writing snapshot")
	}

	result := validate.ValidateLedger(clients, txs)
	if !result.IsValid() {
		ui.Error(fmt.Sprintf("Validation failed with %d errors", len(result.Errors)))
		for i, e := range result.Errors {
			if !*verbose && i >= 5 {
				ui.Error(fmt.Sprintf("... and %d more errors", len(result.Errors)-5))
				break
			}
			ui.Error(fmt.Sprintf("%s %s [%s]: %s", e.Entity, e.ID, e.Field, e.Message))
		}
		return fmt.Errorf("ledger snapshot failed validation")
	}
	for _, w := range result.Warnings {
		if *verbose {
			fmt.Fprintf(os.Stderr, "Warning: %s %s [%s]: %s\n", w.Entity, w.ID, w.Field, w.Message)
		}
	}
	if len(result.Warnings) > 0 && !*verbose {
		ui.Warning(fmt.Sprintf("Validation produced %d warnings (run with -verbose to see them)", len(result.Warnings)))
	}

	opts := output.WriteOptions{Format: format, FilePath: cfg.Output.Path}
	if err := output.WriteClientsToFile(clients, opts); err != nil {
		return err
	}
	if cfg.Output.Path != "" {
		ui.Success(fmt.Sprintf("Snapshot written to %s", cfg.Output.Path))
	}

	if cfg.Output.DumpTransactions {
		txOpts := opts
		if txOpts.FilePath != "" {
			txOpts.FilePath = txOpts.FilePath + ".transactions"
		}
		if err := output.WriteTransactionsToFile(txs, txOpts); err != nil {
			return err
		}
		if txOpts.FilePath != "" {
			ui.Success(fmt.Sprintf("Transaction log written to %s", txOpts.FilePath))
		}
	}

	rep := report.New(len(files), len(clients), len(result.Warnings), stats, time.Since(start))
	rep.Render(os.Stderr)

	return nil
}

// loadConfig builds the effective configuration: embedded defaults, then the
// -config file, then individual flag overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.LoadEmbedded()
	}
	if err != nil {
		return nil, err
	}

	if *storeFlag != "" {
		cfg.Store.Backend = config.StoreBackend(*storeFlag)
	}
	if *formatFlag != "" {
		cfg.Output.Format = *formatFlag
	}
	if *outputFile != "" {
		cfg.Output.Path = *outputFile
	}
	if *dumpTxns {
		cfg.Output.DumpTransactions = true
	}

	switch cfg.Store.Backend {
	case config.StoreMemory, config.StoreSQLite, config.StoreFirestore:
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory, sqlite, or firestore)", cfg.Store.Backend)
	}
	if _, err := output.ParseFormat(cfg.Output.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore creates the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return store.NewMemory(), nil
	case config.StoreSQLite:
		return store.NewSQLite(ctx, cfg.Store.SQLite.Path)
	case config.StoreFirestore:
		return store.NewFirestore(ctx, store.FirestoreOptions{
			ProjectID:        cfg.Store.Firestore.ProjectID,
			CredentialsFile:  cfg.Store.Firestore.CredentialsFile,
			CollectionPrefix: cfg.Store.Firestore.CollectionPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// replayFile resolves the source for one file and replays it.
func replayFile(ctx context.Context, r *runner.Runner, reg *registry.Registry, path string) (*runner.Stats, error) {
	src, err := reg.Find(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", path, closeErr)
		}
	}()

	events, err := src.Open(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s as %s: %w", path, src.Name(), err)
	}

	return r.Replay(ctx, events)
}
