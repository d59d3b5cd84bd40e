package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/equitysim/backtest"
	"github.com/rustyeddy/equitysim/config"
	"github.com/rustyeddy/equitysim/journal"
	"github.com/rustyeddy/equitysim/logger"
	"github.com/rustyeddy/equitysim/marketdata"
	"github.com/rustyeddy/equitysim/strategies"
	"github.com/rustyeddy/equitysim/universe"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run loads a YAML/JSON configuration, replays the configured period
through the configured strategy, prints a summary report, and persists the
run according to the journal settings.

Example:
  backtester run --config backtest.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to backtest config (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cobraCmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	instruments, err := resolveUniverse(cfg)
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	strat, err := strategies.StrategyByName(cfg.Strategy.Name, strategies.Params{
		ShortWindow:   cfg.Strategy.ShortWindow,
		LongWindow:    cfg.Strategy.LongWindow,
		OrderQuantity: cfg.Strategy.OrderQuantity,
	}, log)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	start, end, err := cfg.Period()
	if err != nil {
		return err
	}

	driver := backtest.NewDriver(backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		CommissionRate: cfg.Backtest.CommissionRate,
		SlippageRate:   cfg.Backtest.SlippageRate,
		Instruments:    instruments,
		Start:          start,
		End:            end,
		Granularity:    cfg.Granularity(),
	}, strat, source, store, log)

	result, trades, snapshots, err := driver.Run(context.Background())
	if err != nil {
		// A persistence failure still leaves valid in-memory results;
		// report it after printing them. Anything else is fatal.
		if !errors.Is(err, backtest.ErrPersist) {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	backtest.WriteReport(os.Stdout, journal.RunRecord{
		RunID:       driver.RunID(),
		Created:     time.Now().UTC(),
		Strategy:    strat.Name(),
		Granularity: cfg.Backtest.Granularity,
		Start:       start,
		End:         end,
		Result:      result,
		Trades:      trades,
		Snapshots:   snapshots,
	})
	fmt.Printf("Skipped steps: %d   Rejected orders: %d\n\n", driver.Skips(), driver.Rejects())
	return nil
}

func resolveUniverse(cfg *config.Config) ([]string, error) {
	var provider universe.Provider
	if cfg.Backtest.UniverseFile != "" {
		provider = universe.FromFile(cfg.Backtest.UniverseFile)
	} else {
		provider = universe.Static(cfg.Backtest.Instruments)
	}

	instruments, err := provider.ListInstruments()
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	return instruments, nil
}

func openSource(cfg *config.Config) (marketdata.Source, func(), error) {
	switch cfg.Data.Type {
	case "sqlite":
		src, err := marketdata.NewSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bar store: %w", err)
		}
		return src, func() { src.Close() }, nil
	default:
		return marketdata.NewCSVSource(cfg.Data.Dir), func() {}, nil
	}
}

func openStore(cfg *config.Config) (journal.ResultStore, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		store, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		return store, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.SnapshotsFile), nil
	default:
		return nil, nil
	}
}
