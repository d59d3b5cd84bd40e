package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Replay historical prices against trading strategies",
	Long: `Backtester simulates how a capital allocation would have performed by
replaying historical OHLCV bars through a pluggable strategy.

It provides tools for:
  - Running daily or intraday backtests from a YAML/JSON configuration
  - Persisting results, trades, and value snapshots to SQLite or CSV
  - Importing bar data from CSV (optionally xz-compressed) into SQLite
  - Inspecting previously persisted runs`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
