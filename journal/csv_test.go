package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStoreWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	snapsPath := filepath.Join(dir, "snapshots.csv")

	store := NewCSV(tradesPath, snapsPath)
	rec := testRecord("01RUN_CSV", time.Date(2023, 12, 29, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.SaveRun(rec))
	require.NoError(t, store.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 3, "header plus two trades")
	assert.Equal(t, "trade_id", trades[0][0])

	buy := trades[1]
	assert.Equal(t, "01TRADEAAA", buy[0])
	assert.Equal(t, "01RUN_CSV", buy[1])
	assert.Equal(t, "A005930", buy[2])
	assert.Equal(t, "BUY", buy[4])
	assert.Equal(t, "50000", buy[5])
	assert.Equal(t, "10", buy[6])

	sell := trades[2]
	assert.Equal(t, "SELL", sell[4])
	assert.Equal(t, "9872.5", sell[9])

	snaps := readCSV(t, snapsPath)
	require.Len(t, snaps, 3, "header plus two snapshots")
	assert.Equal(t, []string{"run_id", "time", "cash", "holdings_value", "total_value"}, snaps[0])
	assert.Equal(t, "1000000", snaps[1][2])
	assert.Equal(t, "1009747.5", snaps[2][4])
}

func TestCSVStoreEmptyRun(t *testing.T) {
	dir := t.TempDir()
	store := NewCSV(filepath.Join(dir, "t.csv"), filepath.Join(dir, "s.csv"))

	rec := testRecord("01RUN_EMPTY", time.Now().UTC())
	rec.Trades = nil
	rec.Snapshots = nil
	require.NoError(t, store.SaveRun(rec))

	assert.Len(t, readCSV(t, filepath.Join(dir, "t.csv")), 1, "header only")
	assert.Len(t, readCSV(t, filepath.Join(dir, "s.csv")), 1, "header only")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
