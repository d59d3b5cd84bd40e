package portfolio

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/equitysim/internal/id"
	"github.com/rustyeddy/equitysim/logger"
)

// Ledger tracks cash, open positions, and the trade/snapshot history of one
// simulation run. It is created once per run and mutated only by the driver,
// through ApplyOrder and UpdateMarks. Strategies get it as a read-only view.
//
// Invariants: cash never goes negative, position quantities never go
// negative, the average cost basis changes only on buys, and every
// TradeRecord corresponds to a transition that preserved all of the above.
type Ledger struct {
	initialCapital float64
	cash           float64
	commissionRate float64
	slippageRate   float64

	holdings  map[string]*Position
	trades    []TradeRecord
	snapshots []Snapshot

	// now is the timestamp of the step being processed, advanced by
	// UpdateMarks; trades are stamped with it.
	now time.Time

	log *logger.Logger
}

// NewLedger creates a ledger with the given starting cash and per-notional
// cost rates. A nil log is replaced with a no-op sink.
func NewLedger(initialCapital, commissionRate, slippageRate float64, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.NewNop()
	}
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		commissionRate: commissionRate,
		slippageRate:   slippageRate,
		holdings:       make(map[string]*Position),
		log:            log,
	}
}

// ApplyOrder executes a buy or sell against the ledger. It returns false,
// leaving all state untouched, when the order has a non-positive price or
// quantity, is unaffordable, oversells the held quantity, or has an action
// other than BUY/SELL. A rejected order is a reported condition, not an
// error.
func (l *Ledger) ApplyOrder(o Order) bool {
	if o.Quantity <= 0 || o.Price <= 0 {
		l.log.Warn("order rejected: non-positive price or quantity",
			zap.String("instrument", o.Instrument),
			zap.Float64("price", o.Price),
			zap.Int("quantity", o.Quantity))
		return false
	}

	notional := o.Price * float64(o.Quantity)
	commission := notional * l.commissionRate
	slippage := notional * l.slippageRate

	switch o.Action {
	case Buy:
		total := notional + commission + slippage
		if l.cash < total {
			l.log.Warn("buy rejected: insufficient cash",
				zap.String("instrument", o.Instrument),
				zap.Int("quantity", o.Quantity),
				zap.Float64("price", o.Price),
				zap.Float64("required", total),
				zap.Float64("cash", l.cash))
			return false
		}

		l.cash -= total

		pos, ok := l.holdings[o.Instrument]
		if !ok {
			pos = &Position{Instrument: o.Instrument, MarkPrice: o.Price}
			l.holdings[o.Instrument] = pos
		}

		// Quantity-weighted cost basis across the existing holding and the
		// new lot.
		oldQty := float64(pos.Quantity)
		newQty := oldQty + float64(o.Quantity)
		pos.AvgPrice = (oldQty*pos.AvgPrice + float64(o.Quantity)*o.Price) / newQty
		pos.Quantity += o.Quantity

		l.appendTrade(o, commission, slippage, 0)
		return true

	case Sell:
		pos, ok := l.holdings[o.Instrument]
		if !ok || pos.Quantity < o.Quantity {
			held := 0
			if ok {
				held = pos.Quantity
			}
			l.log.Warn("sell rejected: insufficient holding",
				zap.String("instrument", o.Instrument),
				zap.Int("requested", o.Quantity),
				zap.Int("held", held))
			return false
		}

		pnl := (o.Price-pos.AvgPrice)*float64(o.Quantity) - commission - slippage
		l.cash += notional - commission - slippage
		pos.Quantity -= o.Quantity

		// A flat position has no cost basis; drop the entry entirely.
		if pos.Quantity == 0 {
			delete(l.holdings, o.Instrument)
		}

		l.appendTrade(o, commission, slippage, pnl)
		return true

	default:
		l.log.Warn("order rejected: unknown action",
			zap.String("action", string(o.Action)),
			zap.String("instrument", o.Instrument))
		return false
	}
}

func (l *Ledger) appendTrade(o Order, commission, slippage, pnl float64) {
	l.trades = append(l.trades, TradeRecord{
		TradeID:        id.New(),
		Action:         o.Action,
		Instrument:     o.Instrument,
		Time:           l.now,
		Price:          o.Price,
		Quantity:       o.Quantity,
		Commission:     commission,
		Slippage:       slippage,
		RealizedPL:     pnl,
		PositionSize:   l.HoldingQuantity(o.Instrument),
		PortfolioValue: l.CurrentValue(),
	})
}

// UpdateMarks moves the ledger's clock to t, re-marks every held position
// whose instrument appears in prices, and appends a valuation snapshot.
// Instruments absent from the map keep their last known mark: stale marks
// are tolerated, not zeroed.
func (l *Ledger) UpdateMarks(t time.Time, prices map[string]float64) {
	l.now = t

	for inst, pos := range l.holdings {
		if p, ok := prices[inst]; ok {
			pos.MarkPrice = p
		}
	}

	holdingsValue := 0.0
	for _, pos := range l.holdings {
		holdingsValue += pos.MarketValue()
	}

	l.snapshots = append(l.snapshots, Snapshot{
		Time:          t,
		Cash:          l.cash,
		HoldingsValue: holdingsValue,
		TotalValue:    l.cash + holdingsValue,
	})
}

// CurrentValue returns cash plus the mark-to-market value of all holdings.
func (l *Ledger) CurrentValue() float64 {
	v := l.cash
	for _, pos := range l.holdings {
		v += pos.MarketValue()
	}
	return v
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// HoldingQuantity returns the held quantity for an instrument, 0 if flat.
func (l *Ledger) HoldingQuantity(instrument string) int {
	if pos, ok := l.holdings[instrument]; ok {
		return pos.Quantity
	}
	return 0
}

// Position returns a copy of the holding for an instrument, with ok=false
// when flat. Copies only; the underlying map is never aliased outside the
// ledger.
func (l *Ledger) Position(instrument string) (Position, bool) {
	if pos, ok := l.holdings[instrument]; ok {
		return *pos, true
	}
	return Position{}, false
}

// Trades returns a copy of the trade history in application order.
func (l *Ledger) Trades() []TradeRecord {
	return append([]TradeRecord(nil), l.trades...)
}

// Snapshots returns a copy of the per-step valuation history.
func (l *Ledger) Snapshots() []Snapshot {
	return append([]Snapshot(nil), l.snapshots...)
}

// Finalize reduces the ledger's history into the run result. Call it once,
// after the last step; the ledger is discarded afterwards.
func (l *Ledger) Finalize() Result {
	finalValue := l.CurrentValue()

	totalReturn := 0.0
	if l.initialCapital > 0 {
		totalReturn = (finalValue - l.initialCapital) / l.initialCapital * 100
	}

	return Result{
		InitialCapital: l.initialCapital,
		FinalCapital:   finalValue,
		TotalReturnPct: totalReturn,
		MaxDrawdownPct: maxDrawdownPct(l.snapshots),
		WinRatePct:     winRatePct(l.trades),
		TotalTrades:    len(l.trades),
		CommissionRate: l.commissionRate,
		SlippageRate:   l.slippageRate,
	}
}
