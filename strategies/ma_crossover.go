package strategies

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/equitysim/logger"
	"github.com/rustyeddy/equitysim/market"
	"github.com/rustyeddy/equitysim/portfolio"
)

// MACrossover trades simple-moving-average crossovers of the closing price.
// A buy fires when the short MA rises through the long MA between the
// previous and current step, a sell when it falls through. The signal is the
// sign flip itself, not the crossed state, so a persistent cross emits one
// order, not one per step.
//
// Position decisions always come from the ledger view: a buy is suppressed
// when HoldingQuantity is already positive and a sell is sized to exactly
// the held quantity. The strategy keeps no position flag of its own.
type MACrossover struct {
	shortWindow int
	longWindow  int
	orderQty    int

	view LedgerView

	// Previous step's MAs per instrument; an instrument is absent until its
	// first step with enough data.
	prevShort map[string]float64
	prevLong  map[string]float64

	log *logger.Logger
}

// NewMACrossover builds the strategy. orderQty is the buy size in shares;
// sells always use the live held quantity.
func NewMACrossover(shortWindow, longWindow, orderQty int, log *logger.Logger) *MACrossover {
	if log == nil {
		log = logger.NewNop()
	}
	return &MACrossover{
		shortWindow: shortWindow,
		longWindow:  longWindow,
		orderQty:    orderQty,
		prevShort:   make(map[string]float64),
		prevLong:    make(map[string]float64),
		log:         log,
	}
}

func (s *MACrossover) Name() string {
	return fmt.Sprintf("ma-cross(%d,%d)", s.shortWindow, s.longWindow)
}

func (s *MACrossover) Init(initialCapital float64, universe []string, view LedgerView) error {
	if s.shortWindow <= 0 || s.longWindow <= 0 {
		return fmt.Errorf("ma-cross: windows must be positive, got short=%d long=%d", s.shortWindow, s.longWindow)
	}
	if s.shortWindow >= s.longWindow {
		return fmt.Errorf("ma-cross: short window %d must be below long window %d", s.shortWindow, s.longWindow)
	}
	if s.orderQty <= 0 {
		return fmt.Errorf("ma-cross: order quantity must be positive, got %d", s.orderQty)
	}
	if view == nil {
		return fmt.Errorf("ma-cross: ledger view is required")
	}

	s.view = view
	s.log.Info("strategy initialized",
		zap.String("strategy", s.Name()),
		zap.Float64("initial_capital", initialCapital),
		zap.Int("instruments", len(universe)))
	return nil
}

func (s *MACrossover) OnStep(t time.Time, windows map[string]market.Series) []portfolio.Signal {
	// Map iteration order is random; sort so the signal sequence, and
	// therefore the whole run, is deterministic.
	instruments := make([]string, 0, len(windows))
	for inst := range windows {
		instruments = append(instruments, inst)
	}
	sort.Strings(instruments)

	var signals []portfolio.Signal
	for _, inst := range instruments {
		if sig, ok := s.evaluate(t, inst, windows[inst]); ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

// evaluate updates the per-instrument MA state and returns an actionable
// signal when a crossover occurred this step.
func (s *MACrossover) evaluate(t time.Time, inst string, window market.Series) (portfolio.Signal, bool) {
	if len(window) < s.longWindow {
		return portfolio.Signal{}, false
	}

	shortMA := meanClose(window[len(window)-s.shortWindow:])
	longMA := meanClose(window[len(window)-s.longWindow:])

	prevShort, ok1 := s.prevShort[inst]
	prevLong, ok2 := s.prevLong[inst]
	s.prevShort[inst] = shortMA
	s.prevLong[inst] = longMA

	if !ok1 || !ok2 {
		return portfolio.Signal{}, false
	}

	price := window.Last().Close

	switch {
	case prevShort <= prevLong && shortMA > longMA:
		// Golden cross. Skip when already long; rejections elsewhere mean
		// the view, not this strategy, decides what "long" means.
		if s.view.HoldingQuantity(inst) > 0 {
			return portfolio.Signal{}, false
		}
		s.log.Info("golden cross",
			zap.Time("time", t),
			zap.String("instrument", inst),
			zap.Float64("short_ma", shortMA),
			zap.Float64("long_ma", longMA))
		return portfolio.Signal{
			Action:     portfolio.Buy,
			Instrument: inst,
			Price:      price,
			Quantity:   s.orderQty,
		}, true

	case prevShort >= prevLong && shortMA < longMA:
		// Dead cross. Sell exactly what the ledger says we hold.
		held := s.view.HoldingQuantity(inst)
		if held <= 0 {
			return portfolio.Signal{}, false
		}
		s.log.Info("dead cross",
			zap.Time("time", t),
			zap.String("instrument", inst),
			zap.Float64("short_ma", shortMA),
			zap.Float64("long_ma", longMA))
		return portfolio.Signal{
			Action:     portfolio.Sell,
			Instrument: inst,
			Price:      price,
			Quantity:   held,
		}, true
	}

	return portfolio.Signal{}, false
}

func (s *MACrossover) OnFinish() {
	s.log.Info("strategy finished", zap.String("strategy", s.Name()))
}

func meanClose(bars market.Series) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}
