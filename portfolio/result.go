package portfolio

// Result summarizes a finished run. It is derived once by Finalize and never
// mutated afterwards.
type Result struct {
	InitialCapital float64
	FinalCapital   float64

	// Percentages: 12.5 means +12.5%. MaxDrawdownPct is 0 or negative.
	TotalReturnPct float64
	MaxDrawdownPct float64
	WinRatePct     float64

	// TotalTrades counts every applied order, buys and sells alike.
	TotalTrades int

	CommissionRate float64
	SlippageRate   float64
}

// maxDrawdownPct returns the worst peak-to-trough decline over the snapshot
// series as a percentage (≤ 0). The running peak includes the current point,
// so the drawdown at a fresh peak is 0.
func maxDrawdownPct(snapshots []Snapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}

	peak := snapshots[0].TotalValue
	worst := 0.0
	for _, s := range snapshots {
		if s.TotalValue > peak {
			peak = s.TotalValue
		}
		if peak > 0 {
			dd := (s.TotalValue - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// winRatePct returns the share of sell trades that realized a profit. Buys
// do not count toward the denominator; no sells means 0.
func winRatePct(trades []TradeRecord) float64 {
	sells := 0
	wins := 0
	for _, t := range trades {
		if t.Action != Sell {
			continue
		}
		sells++
		if t.RealizedPL > 0 {
			wins++
		}
	}
	if sells == 0 {
		return 0
	}
	return float64(wins) / float64(sells) * 100
}
