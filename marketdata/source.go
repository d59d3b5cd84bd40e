// Package marketdata supplies historical bars to the simulation driver.
// Implementations serve lookahead-safe windows: everything at or before the
// requested instant, nothing after it.
package marketdata

import (
	"context"
	"time"

	"github.com/rustyeddy/equitysim/market"
)

// Source is the data collaborator the driver consumes. GetWindow returns all
// bars for the instrument with timestamps at or before asOf, ascending. When
// no data is available it returns an empty series, not an error.
type Source interface {
	GetWindow(ctx context.Context, instrument string, asOf time.Time, g market.Granularity) (market.Series, error)
}
