package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/equitysim/market"
)

func TestSQLiteSourceRoundTrip(t *testing.T) {
	src, err := NewSQLite(filepath.Join(t.TempDir(), "bars.sqlite"))
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC) }

	bars := []market.Bar{
		{Instrument: "A005930", Time: day(2), Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
		{Instrument: "A005930", Time: day(3), Open: 104, High: 110, Low: 103, Close: 108, Volume: 1500},
		{Instrument: "A005930", Time: day(4), Open: 108, High: 109, Low: 101, Close: 102, Volume: 2000},
	}
	require.NoError(t, src.SaveBars(ctx, bars, market.GranularityDaily))

	w, err := src.GetWindow(ctx, "A005930", day(3), market.GranularityDaily)
	require.NoError(t, err)
	require.Len(t, w, 2)
	assert.Equal(t, day(2), w[0].Time)
	assert.Equal(t, 108.0, w.Last().Close)
	assert.Equal(t, int64(1500), w.Last().Volume)

	// Granularities are separate namespaces.
	w, err = src.GetWindow(ctx, "A005930", day(9), market.GranularityIntraday)
	require.NoError(t, err)
	assert.True(t, w.Empty())

	// Unknown instrument is empty, not an error.
	w, err = src.GetWindow(ctx, "A000660", day(9), market.GranularityDaily)
	require.NoError(t, err)
	assert.True(t, w.Empty())
}

func TestSQLiteSourceUpsert(t *testing.T) {
	src, err := NewSQLite(filepath.Join(t.TempDir(), "bars.sqlite"))
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	at := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, src.SaveBars(ctx, []market.Bar{
		{Instrument: "X", Time: at, Close: 100, Volume: 1},
	}, market.GranularityDaily))

	// Re-importing the same bar replaces it instead of duplicating.
	require.NoError(t, src.SaveBars(ctx, []market.Bar{
		{Instrument: "X", Time: at, Close: 101, Volume: 2},
	}, market.GranularityDaily))

	w, err := src.GetWindow(ctx, "X", at, market.GranularityDaily)
	require.NoError(t, err)
	require.Len(t, w, 1)
	assert.Equal(t, 101.0, w[0].Close)
}
