package strategies

import (
	"time"

	"github.com/rustyeddy/equitysim/market"
	"github.com/rustyeddy/equitysim/portfolio"
)

// Noop never trades. Useful as a baseline and in tests.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Init(float64, []string, LedgerView) error { return nil }

func (Noop) OnStep(time.Time, map[string]market.Series) []portfolio.Signal { return nil }

func (Noop) OnFinish() {}
