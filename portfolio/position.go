package portfolio

// Position is one open holding. AvgPrice is the quantity-weighted cost basis
// and only changes on buys. MarkPrice is the last price used to value the
// position; it may be stale if recent steps had no data for the instrument.
type Position struct {
	Instrument string
	Quantity   int
	AvgPrice   float64
	MarkPrice  float64
}

// MarketValue values the position at its current mark.
func (p Position) MarketValue() float64 {
	return float64(p.Quantity) * p.MarkPrice
}
