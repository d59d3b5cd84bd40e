package marketdata

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/equitysim/market"
)

const barSchema = `
CREATE TABLE IF NOT EXISTS bars (
	instrument TEXT NOT NULL,
	granularity TEXT NOT NULL,
	time DATETIME NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (instrument, granularity, time)
);

CREATE INDEX IF NOT EXISTS idx_bars_lookup ON bars(instrument, granularity, time);
`

// SQLiteSource stores bars in SQLite and serves windows with a range query.
// It doubles as the import target for the CLI's data loader.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a bar store at path.
func NewSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(barSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSource{db: db}, nil
}

// SaveBars upserts a batch of bars in one transaction.
func (s *SQLiteSource) SaveBars(ctx context.Context, bars []market.Bar, g market.Granularity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars
		(instrument, granularity, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.Instrument, string(g), b.Time.UTC(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetWindow implements Source.
func (s *SQLiteSource) GetWindow(ctx context.Context, instrument string, asOf time.Time, g market.Granularity) (market.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, open, high, low, close, volume
		FROM bars
		WHERE instrument = ? AND granularity = ? AND time <= ?
		ORDER BY time ASC`,
		instrument, string(g), asOf.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series market.Series
	for rows.Next() {
		b := market.Bar{Instrument: instrument}
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Time = b.Time.UTC()
		series = append(series, b)
	}
	return series, rows.Err()
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
