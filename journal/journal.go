// Package journal persists finished backtest runs: the summary result row,
// the trade log, and the valuation snapshots.
package journal

import (
	"time"

	"github.com/rustyeddy/equitysim/portfolio"
)

// RunRecord is everything a finished run hands to a store.
type RunRecord struct {
	RunID       string
	Created     time.Time
	Strategy    string
	Granularity string
	Start       time.Time
	End         time.Time

	Result    portfolio.Result
	Trades    []portfolio.TradeRecord
	Snapshots []portfolio.Snapshot
}

// ResultStore persists run records. Failures are reported to the caller and
// never retried internally; a failed save does not invalidate the in-memory
// results the driver already produced.
type ResultStore interface {
	SaveRun(rec RunRecord) error
	Close() error
}
