package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/equitysim/market"
	"github.com/rustyeddy/equitysim/marketdata"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load CSV bar files into the SQLite bar store",
	Long: `Import reads every <instrument>.csv or <instrument>.csv.xz file in a
directory and stores the bars in the SQLite bar store used by 'run' with
data.type sqlite.

Example:
  backtester import --dir ./data/daily --granularity daily --db bars.sqlite`,
	RunE: runImport,
}

var (
	importDir         string
	importDBPath      string
	importGranularity string
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDir, "dir", "", "directory of bar CSV files (required)")
	importCmd.Flags().StringVarP(&importDBPath, "db", "d", "./bars.sqlite", "path to SQLite bar store")
	importCmd.Flags().StringVarP(&importGranularity, "granularity", "g", string(market.GranularityDaily), "bar granularity (daily, intraday)")
	importCmd.MarkFlagRequired("dir")
}

func runImport(cobraCmd *cobra.Command, args []string) error {
	g := market.Granularity(importGranularity)
	if !g.Valid() {
		return fmt.Errorf("bad granularity %q", importGranularity)
	}

	store, err := marketdata.NewSQLite(importDBPath)
	if err != nil {
		return fmt.Errorf("open bar store: %w", err)
	}
	defer store.Close()

	entries, err := os.ReadDir(importDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	imported := 0

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		var instrument string
		switch {
		case strings.HasSuffix(name, ".csv.xz"):
			instrument = strings.TrimSuffix(name, ".csv.xz")
		case strings.HasSuffix(name, ".csv"):
			instrument = strings.TrimSuffix(name, ".csv")
		default:
			continue
		}

		bars, err := marketdata.ReadBarsFile(filepath.Join(importDir, name), instrument)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := store.SaveBars(ctx, bars, g); err != nil {
			return fmt.Errorf("save %s: %w", instrument, err)
		}

		fmt.Printf("  %s: %d bars\n", instrument, len(bars))
		imported++
	}

	fmt.Printf("Imported %d instrument(s) into %s\n", imported, importDBPath)
	return nil
}
