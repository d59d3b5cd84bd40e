package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/equitysim/backtest"
	"github.com/rustyeddy/equitysim/journal"
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Inspect persisted backtest runs",
	Long: `Result lists persisted runs, or prints the full report for one run.

Examples:
  backtester result --db backtests.sqlite
  backtester result --db backtests.sqlite --run 01J9ZK...`,
	RunE: runResult,
}

var (
	resultDBPath string
	resultRunID  string
)

func init() {
	rootCmd.AddCommand(resultCmd)

	resultCmd.Flags().StringVarP(&resultDBPath, "db", "d", "./backtests.sqlite", "path to SQLite journal DB")
	resultCmd.Flags().StringVarP(&resultRunID, "run", "r", "", "run id to print (omit to list runs)")
}

func runResult(cobraCmd *cobra.Command, args []string) error {
	store, err := journal.NewSQLite(resultDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	if resultRunID == "" {
		ids, err := store.ListRuns(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	rec, err := store.LoadRun(ctx, resultRunID)
	if err != nil {
		return err
	}

	backtest.WriteReport(os.Stdout, rec)
	return nil
}
