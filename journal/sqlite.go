package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/equitysim/portfolio"
)

// SQLiteStore persists runs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a result store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRun writes the run row, its trade log, and its snapshots in one
// transaction.
func (s *SQLiteStore) SaveRun(rec RunRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	r := rec.Result
	if _, err := tx.Exec(`
		INSERT INTO backtest_runs
		(run_id, created, strategy, granularity, start_date, end_date,
		 initial_capital, final_capital, total_return, annualized_return,
		 max_drawdown, sharpe_ratio, total_trades, win_rate, profit_factor,
		 commission_rate, slippage_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Created.UTC(), rec.Strategy, rec.Granularity,
		rec.Start.UTC(), rec.End.UTC(),
		r.InitialCapital, r.FinalCapital, r.TotalReturnPct, 0.0,
		r.MaxDrawdownPct, 0.0, r.TotalTrades, r.WinRatePct, 0.0,
		r.CommissionRate, r.SlippageRate,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("save run %s: %w", rec.RunID, err)
	}

	for _, t := range rec.Trades {
		if _, err := tx.Exec(`
			INSERT INTO trade_log
			(trade_id, run_id, instrument, trade_time, action, price, quantity,
			 commission, slippage, pnl, position_size, portfolio_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.TradeID, rec.RunID, t.Instrument, t.Time.UTC(), string(t.Action),
			t.Price, t.Quantity, t.Commission, t.Slippage, t.RealizedPL,
			t.PositionSize, t.PortfolioValue,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("save trade %s: %w", t.TradeID, err)
		}
	}

	for _, snap := range rec.Snapshots {
		if _, err := tx.Exec(`
			INSERT INTO value_snapshots
			(run_id, time, cash, holdings_value, total_value)
			VALUES (?, ?, ?, ?, ?)`,
			rec.RunID, snap.Time.UTC(), snap.Cash, snap.HoldingsValue, snap.TotalValue,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRun reads a persisted run back, trades and snapshots included.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	var rec RunRecord
	var zero1, zero2, zero3 float64

	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, created, strategy, granularity, start_date, end_date,
		       initial_capital, final_capital, total_return, annualized_return,
		       max_drawdown, sharpe_ratio, total_trades, win_rate, profit_factor,
		       commission_rate, slippage_rate
		FROM backtest_runs WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.Strategy, &rec.Granularity,
		&rec.Start, &rec.End,
		&rec.Result.InitialCapital, &rec.Result.FinalCapital,
		&rec.Result.TotalReturnPct, &zero1,
		&rec.Result.MaxDrawdownPct, &zero2,
		&rec.Result.TotalTrades, &rec.Result.WinRatePct, &zero3,
		&rec.Result.CommissionRate, &rec.Result.SlippageRate,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("load run %s: %w", runID, err)
	}

	rec.Trades, err = s.listTrades(ctx, runID)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Snapshots, err = s.listSnapshots(ctx, runID)
	if err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns run ids, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM backtest_runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) listTrades(ctx context.Context, runID string) ([]portfolio.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, instrument, trade_time, action, price, quantity,
		       commission, slippage, pnl, position_size, portfolio_value
		FROM trade_log WHERE run_id = ? ORDER BY trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []portfolio.TradeRecord
	for rows.Next() {
		var t portfolio.TradeRecord
		var action string
		if err := rows.Scan(
			&t.TradeID, &t.Instrument, &t.Time, &action, &t.Price, &t.Quantity,
			&t.Commission, &t.Slippage, &t.RealizedPL, &t.PositionSize, &t.PortfolioValue,
		); err != nil {
			return nil, err
		}
		t.Action = portfolio.Action(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *SQLiteStore) listSnapshots(ctx context.Context, runID string) ([]portfolio.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, cash, holdings_value, total_value
		FROM value_snapshots WHERE run_id = ? ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []portfolio.Snapshot
	for rows.Next() {
		var snap portfolio.Snapshot
		if err := rows.Scan(&snap.Time, &snap.Cash, &snap.HoldingsValue, &snap.TotalValue); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
