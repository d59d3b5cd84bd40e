package portfolio

import "time"

// TradeRecord is the immutable log entry appended for every successfully
// applied order. Rejected orders never produce a record.
type TradeRecord struct {
	TradeID    string
	Action     Action
	Instrument string
	Time       time.Time
	Price      float64
	Quantity   int
	Commission float64
	Slippage   float64

	// RealizedPL is meaningful on sells only; buys record 0.
	RealizedPL float64

	// State after the trade was applied.
	PositionSize   int
	PortfolioValue float64
}

// Snapshot captures portfolio valuation at one simulation step. One snapshot
// is appended per step whether or not any trade occurred.
type Snapshot struct {
	Time          time.Time
	Cash          float64
	HoldingsValue float64
	TotalValue    float64
}
