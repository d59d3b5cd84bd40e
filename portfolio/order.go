// Package portfolio owns the simulated account: cash, positions, trade
// history, and the valuation snapshots a run produces. All mutation goes
// through the Ledger; strategies only ever see a read-only view.
package portfolio

// Action is what a signal asks the ledger to do.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// Order is a strategy's requested action for one instrument at one step.
// Orders are transient: the driver applies them to the ledger immediately
// and they are never stored as-is.
type Order struct {
	Action     Action
	Instrument string
	Price      float64
	Quantity   int
}

// Signal is the name strategies use for the same shape.
type Signal = Order
