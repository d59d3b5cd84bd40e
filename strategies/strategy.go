// Package strategies defines the contract a trading strategy satisfies and
// the built-in implementations that ship with the simulator.
package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/equitysim/logger"
	"github.com/rustyeddy/equitysim/market"
	"github.com/rustyeddy/equitysim/portfolio"
)

// LedgerView is the read-only slice of ledger state a strategy may consult.
// Strategies must size sells and suppress duplicate buys by querying this
// view rather than caching position state locally: a locally cached "I am
// long" flag desyncs from ground truth the moment an order is rejected.
type LedgerView interface {
	HoldingQuantity(instrument string) int
	CurrentValue() float64
}

// Strategy is the interface every backtest strategy must implement.
type Strategy interface {
	Name() string

	// Init is called once before the first step. The view stays valid for
	// the whole run and always reflects executed state.
	Init(initialCapital float64, universe []string, view LedgerView) error

	// OnStep is called once per time step. windows holds, for each
	// instrument with available data, every bar from the run start up to
	// and including t; the driver guarantees nothing later ever appears.
	// A nil/empty return, or HOLD signals, mean no order this step.
	OnStep(t time.Time, windows map[string]market.Series) []portfolio.Signal

	// OnFinish is called once after the last step.
	OnFinish()
}

var registry = make(map[string]Strategy)

// Register adds a strategy under a name. Registered strategies are resolved
// by StrategyByName ahead of the built-ins, so callers can plug in their own
// implementations without touching this package.
func Register(name string, strat Strategy) {
	registry[strings.ToLower(strings.TrimSpace(name))] = strat
}

// GetStrategy returns a registered strategy, or nil when unknown.
func GetStrategy(name string) Strategy {
	return registry[strings.ToLower(strings.TrimSpace(name))]
}

// Params carries the knobs the built-in strategies understand.
type Params struct {
	ShortWindow   int
	LongWindow    int
	OrderQuantity int
}

// StrategyByName resolves a registered strategy, falling back to the
// built-ins.
func StrategyByName(name string, p Params, log *logger.Logger) (Strategy, error) {
	if strat := GetStrategy(name); strat != nil {
		return strat, nil
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "ma-cross", "macross":
		return NewMACrossover(p.ShortWindow, p.LongWindow, p.OrderQuantity, log), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, ma-cross)", name)
	}
}
