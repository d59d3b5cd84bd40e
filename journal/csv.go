package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVStore writes trades and snapshots to two CSV files. The run summary is
// not written here; the CLI prints it.
type CSVStore struct {
	tradesPath    string
	snapshotsPath string
}

// NewCSV creates a store that will write the given files on SaveRun.
func NewCSV(tradesPath, snapshotsPath string) *CSVStore {
	return &CSVStore{tradesPath: tradesPath, snapshotsPath: snapshotsPath}
}

func (s *CSVStore) SaveRun(rec RunRecord) error {
	if err := s.writeTrades(rec); err != nil {
		return err
	}
	return s.writeSnapshots(rec)
}

func (s *CSVStore) writeTrades(rec RunRecord) error {
	f, err := os.Create(s.tradesPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"trade_id", "run_id", "instrument", "trade_time", "action", "price",
		"quantity", "commission", "slippage", "pnl", "position_size", "portfolio_value",
	}); err != nil {
		return err
	}

	for _, t := range rec.Trades {
		if err := w.Write([]string{
			t.TradeID,
			rec.RunID,
			t.Instrument,
			t.Time.UTC().Format(time.RFC3339),
			string(t.Action),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			strconv.Itoa(t.Quantity),
			strconv.FormatFloat(t.Commission, 'f', -1, 64),
			strconv.FormatFloat(t.Slippage, 'f', -1, 64),
			strconv.FormatFloat(t.RealizedPL, 'f', -1, 64),
			strconv.Itoa(t.PositionSize),
			strconv.FormatFloat(t.PortfolioValue, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *CSVStore) writeSnapshots(rec RunRecord) error {
	f, err := os.Create(s.snapshotsPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"run_id", "time", "cash", "holdings_value", "total_value"}); err != nil {
		return err
	}

	for _, snap := range rec.Snapshots {
		if err := w.Write([]string{
			rec.RunID,
			snap.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(snap.Cash, 'f', -1, 64),
			strconv.FormatFloat(snap.HoldingsValue, 'f', -1, 64),
			strconv.FormatFloat(snap.TotalValue, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *CSVStore) Close() error { return nil }
