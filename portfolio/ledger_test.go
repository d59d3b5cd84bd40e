package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-6

func step(d int) time.Time {
	return time.Date(2023, 6, d, 0, 0, 0, 0, time.UTC)
}

// Round-trip with the documented cost model: 1,000,000 starting cash,
// commission 0.015%, slippage 0.01%.
func TestLedgerBuySellRoundTrip(t *testing.T) {
	l := NewLedger(1_000_000, 0.00015, 0.0001, nil)
	l.UpdateMarks(step(1), nil)

	ok := l.ApplyOrder(Order{Action: Buy, Instrument: "A005930", Price: 50_000, Quantity: 10})
	require.True(t, ok)

	// notional 500,000; commission 75; slippage 50; total debit 500,125.
	assert.InDelta(t, 499_875, l.Cash(), eps)

	pos, held := l.Position("A005930")
	require.True(t, held)
	assert.Equal(t, 10, pos.Quantity)
	assert.InDelta(t, 50_000, pos.AvgPrice, eps)

	l.UpdateMarks(step(2), map[string]float64{"A005930": 51_000})
	assert.InDelta(t, 1_009_875, l.CurrentValue(), eps)

	ok = l.ApplyOrder(Order{Action: Sell, Instrument: "A005930", Price: 51_000, Quantity: 10})
	require.True(t, ok)

	// pnl = 1,000 * 10 - 76.5 - 51 = 9,872.5
	assert.InDelta(t, 1_009_747.5, l.Cash(), eps)

	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, Buy, trades[0].Action)
	assert.InDelta(t, 0, trades[0].RealizedPL, eps)
	assert.Equal(t, Sell, trades[1].Action)
	assert.InDelta(t, 9_872.5, trades[1].RealizedPL, eps)
	assert.InDelta(t, 76.5, trades[1].Commission, eps)
	assert.InDelta(t, 51, trades[1].Slippage, eps)

	// Position is gone once flat.
	_, held = l.Position("A005930")
	assert.False(t, held)
	assert.Equal(t, 0, l.HoldingQuantity("A005930"))
}

func TestLedgerWeightedAverageCost(t *testing.T) {
	l := NewLedger(10_000_000, 0, 0, nil)
	l.UpdateMarks(step(1), nil)

	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 10}))
	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 200, Quantity: 30}))

	pos, ok := l.Position("X")
	require.True(t, ok)
	assert.Equal(t, 40, pos.Quantity)
	assert.InDelta(t, 175, pos.AvgPrice, eps) // (10*100 + 30*200) / 40

	// Selling must not move the basis.
	require.True(t, l.ApplyOrder(Order{Action: Sell, Instrument: "X", Price: 150, Quantity: 15}))
	pos, ok = l.Position("X")
	require.True(t, ok)
	assert.Equal(t, 25, pos.Quantity)
	assert.InDelta(t, 175, pos.AvgPrice, eps)
}

func TestLedgerRejectsUnaffordableBuy(t *testing.T) {
	l := NewLedger(1_000, 0.00015, 0.0001, nil)
	l.UpdateMarks(step(1), nil)

	ok := l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 10})
	assert.False(t, ok, "notional alone fits but costs push it past cash")

	assert.InDelta(t, 1_000, l.Cash(), eps)
	assert.Empty(t, l.Trades())
	assert.Equal(t, 0, l.HoldingQuantity("X"))
}

func TestLedgerRejectsOversell(t *testing.T) {
	l := NewLedger(100_000, 0, 0, nil)
	l.UpdateMarks(step(1), nil)

	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 5}))

	cashBefore := l.Cash()
	ok := l.ApplyOrder(Order{Action: Sell, Instrument: "X", Price: 100, Quantity: 6})
	assert.False(t, ok)
	assert.InDelta(t, cashBefore, l.Cash(), eps)
	assert.Equal(t, 5, l.HoldingQuantity("X"))
	assert.Len(t, l.Trades(), 1, "rejected order must leave no record")

	// Selling an instrument never held is rejected too.
	assert.False(t, l.ApplyOrder(Order{Action: Sell, Instrument: "Y", Price: 100, Quantity: 1}))
}

func TestLedgerRejectsNonPositivePriceOrQuantity(t *testing.T) {
	l := NewLedger(1_000_000, 0.00015, 0.0001, nil)
	l.UpdateMarks(step(1), nil)

	// A zero-quantity buy costs nothing, so the cash check alone would let
	// it through and leave a divide-by-zero cost basis behind.
	assert.False(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 0}))
	assert.False(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: -5}))
	assert.False(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 0, Quantity: 10}))
	assert.False(t, l.ApplyOrder(Order{Action: Sell, Instrument: "X", Price: 100, Quantity: 0}))

	_, held := l.Position("X")
	assert.False(t, held)
	assert.Empty(t, l.Trades())
	assert.InDelta(t, 1_000_000, l.Cash(), eps)

	// The basis and PnL of real trades stay clean afterwards.
	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 10}))
	pos, held := l.Position("X")
	require.True(t, held)
	assert.InDelta(t, 100, pos.AvgPrice, eps)

	require.True(t, l.ApplyOrder(Order{Action: Sell, Instrument: "X", Price: 110, Quantity: 10}))
	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.False(t, math.IsNaN(trades[1].RealizedPL))
	assert.InDelta(t, 10*10-1100*0.00015-1100*0.0001, trades[1].RealizedPL, eps)
}

func TestLedgerRejectsUnknownAction(t *testing.T) {
	l := NewLedger(100_000, 0, 0, nil)
	assert.False(t, l.ApplyOrder(Order{Action: Hold, Instrument: "X", Price: 100, Quantity: 1}))
	assert.False(t, l.ApplyOrder(Order{Action: Action("SHORT"), Instrument: "X", Price: 100, Quantity: 1}))
	assert.Empty(t, l.Trades())
}

func TestLedgerStaleMarksRetained(t *testing.T) {
	l := NewLedger(1_000_000, 0, 0, nil)
	l.UpdateMarks(step(1), map[string]float64{"X": 100})

	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 10}))
	l.UpdateMarks(step(2), map[string]float64{"X": 120})

	// No price for X on the next step: the 120 mark carries forward.
	l.UpdateMarks(step(3), map[string]float64{})

	snaps := l.Snapshots()
	require.Len(t, snaps, 3)
	assert.InDelta(t, snaps[1].TotalValue, snaps[2].TotalValue, eps)

	pos, ok := l.Position("X")
	require.True(t, ok)
	assert.InDelta(t, 120, pos.MarkPrice, eps)
}

func TestLedgerSnapshotsConsistent(t *testing.T) {
	l := NewLedger(500_000, 0.00015, 0.0001, nil)

	l.UpdateMarks(step(1), map[string]float64{"A": 100, "B": 200})
	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "A", Price: 100, Quantity: 100}))
	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "B", Price: 200, Quantity: 50}))
	l.UpdateMarks(step(2), map[string]float64{"A": 110, "B": 190})

	// Cash is the initial capital minus the full cost of each buy.
	assert.InDelta(t, 500_000-10_000*1.00025-10_000*1.00025, l.Cash(), eps)

	for _, s := range l.Snapshots() {
		assert.InDelta(t, s.TotalValue, s.Cash+s.HoldingsValue, eps)
	}

	last := l.Snapshots()[1]
	assert.InDelta(t, 100*110+50*190, last.HoldingsValue, eps)
	assert.InDelta(t, l.CurrentValue(), last.TotalValue, eps)
}

func TestFinalizeEmptyRun(t *testing.T) {
	l := NewLedger(1_000_000, 0.00015, 0.0001, nil)

	r := l.Finalize()
	assert.InDelta(t, 1_000_000, r.FinalCapital, eps)
	assert.InDelta(t, 0, r.TotalReturnPct, eps)
	assert.InDelta(t, 0, r.MaxDrawdownPct, eps)
	assert.InDelta(t, 0, r.WinRatePct, eps)
	assert.Equal(t, 0, r.TotalTrades)
}

func TestFinalizeMetrics(t *testing.T) {
	l := NewLedger(1_000_000, 0, 0, nil)

	l.UpdateMarks(step(1), map[string]float64{"X": 100})
	require.True(t, l.ApplyOrder(Order{Action: Buy, Instrument: "X", Price: 100, Quantity: 1_000}))
	l.UpdateMarks(step(2), map[string]float64{"X": 80})  // trough
	l.UpdateMarks(step(3), map[string]float64{"X": 120}) // recovery
	require.True(t, l.ApplyOrder(Order{Action: Sell, Instrument: "X", Price: 120, Quantity: 500}))
	require.True(t, l.ApplyOrder(Order{Action: Sell, Instrument: "X", Price: 90, Quantity: 500}))
	l.UpdateMarks(step(4), map[string]float64{})

	r := l.Finalize()

	// Value dipped from 1,000,000 to 980,000 at the 80 mark.
	assert.InDelta(t, -2.0, r.MaxDrawdownPct, eps)

	// One profitable sell out of two; buys excluded from the rate.
	assert.InDelta(t, 50, r.WinRatePct, eps)

	// Every applied order counts, buys included.
	assert.Equal(t, 3, r.TotalTrades)

	assert.InDelta(t, float64(1_000_000+500*20-500*10), r.FinalCapital, eps)
	assert.InDelta(t, (r.FinalCapital-1_000_000)/1_000_000*100, r.TotalReturnPct, eps)
}

func TestMaxDrawdownNeverPositive(t *testing.T) {
	snaps := []Snapshot{
		{TotalValue: 100},
		{TotalValue: 150},
		{TotalValue: 200},
	}
	assert.InDelta(t, 0, maxDrawdownPct(snaps), eps)
	assert.InDelta(t, 0, maxDrawdownPct(nil), eps)
}

func TestWinRateNoSells(t *testing.T) {
	trades := []TradeRecord{{Action: Buy, RealizedPL: 0}}
	assert.InDelta(t, 0, winRatePct(trades), eps)
}
