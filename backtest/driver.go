// Package backtest drives a strategy over historical data: it advances the
// clock, slices lookahead-free windows, applies the strategy's signals to
// the portfolio ledger, and reduces the outcome into a run record.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/equitysim/internal/id"
	"github.com/rustyeddy/equitysim/journal"
	"github.com/rustyeddy/equitysim/logger"
	"github.com/rustyeddy/equitysim/market"
	"github.com/rustyeddy/equitysim/marketdata"
	"github.com/rustyeddy/equitysim/portfolio"
	"github.com/rustyeddy/equitysim/strategies"
)

// ErrInvalidConfig classifies fatal configuration problems: these abort a
// run before any step executes and produce no partial results.
var ErrInvalidConfig = errors.New("invalid backtest config")

// ErrPersist classifies result-store failures. A Run error wrapping it means
// the returned result, trades, and snapshots are complete and valid; only
// the save failed.
var ErrPersist = errors.New("persist backtest run")

// Config enumerates everything a run needs.
type Config struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64
	Instruments    []string
	Start          time.Time
	End            time.Time
	Granularity    market.Granularity
}

// Validate checks the fatal preconditions.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidConfig, c.InitialCapital)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("%w: commission rate must be >= 0, got %v", ErrInvalidConfig, c.CommissionRate)
	}
	if c.SlippageRate < 0 {
		return fmt.Errorf("%w: slippage rate must be >= 0, got %v", ErrInvalidConfig, c.SlippageRate)
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("%w: instrument universe is empty", ErrInvalidConfig)
	}
	if c.Start.IsZero() || c.End.IsZero() || c.End.Before(c.Start) {
		return fmt.Errorf("%w: date range %v..%v", ErrInvalidConfig, c.Start, c.End)
	}
	if !c.Granularity.Valid() {
		return fmt.Errorf("%w: granularity %q", ErrInvalidConfig, c.Granularity)
	}
	return nil
}

// State is the driver's lifecycle phase.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateRunning      State = "RUNNING"
	StateFinalizing   State = "FINALIZING"
	StateDone         State = "DONE"
)

// Driver runs one backtest. It is single-use: after Run completes the driver
// is DONE and cannot be restarted.
type Driver struct {
	cfg      Config
	strategy strategies.Strategy
	source   marketdata.Source
	store    journal.ResultStore // optional
	ledger   *portfolio.Ledger
	log      *logger.Logger

	state   State
	runID   string
	skips   int // instrument-steps skipped for missing data
	rejects int // orders the ledger refused
}

// NewDriver wires a driver. store may be nil to skip persistence; a nil log
// is replaced with a no-op sink.
func NewDriver(cfg Config, strat strategies.Strategy, src marketdata.Source, store journal.ResultStore, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Driver{
		cfg:      cfg,
		strategy: strat,
		source:   src,
		store:    store,
		log:      log,
		state:    StateInitializing,
		runID:    id.New(),
	}
}

// State returns the driver's current phase.
func (d *Driver) State() State { return d.state }

// RunID returns the run's identifier.
func (d *Driver) RunID() string { return d.runID }

// Skips returns how many instrument-steps were skipped for missing data.
func (d *Driver) Skips() int { return d.skips }

// Rejects returns how many orders the ledger refused.
func (d *Driver) Rejects() int { return d.rejects }

// Run executes the whole simulation and returns the result, the trade
// history, and the snapshot history. The three are valid whenever the error
// is nil or wraps only a persistence failure; a config error yields nothing.
func (d *Driver) Run(ctx context.Context) (portfolio.Result, []portfolio.TradeRecord, []portfolio.Snapshot, error) {
	if d.state != StateInitializing {
		return portfolio.Result{}, nil, nil, fmt.Errorf("driver already ran (state %s)", d.state)
	}
	if err := d.cfg.Validate(); err != nil {
		d.state = StateDone
		return portfolio.Result{}, nil, nil, err
	}

	d.ledger = portfolio.NewLedger(d.cfg.InitialCapital, d.cfg.CommissionRate, d.cfg.SlippageRate, d.log)

	universe := append([]string(nil), d.cfg.Instruments...)
	sort.Strings(universe)

	if err := d.strategy.Init(d.cfg.InitialCapital, universe, d.ledger); err != nil {
		d.state = StateDone
		return portfolio.Result{}, nil, nil, fmt.Errorf("strategy init: %w", err)
	}

	d.state = StateRunning
	d.log.Info("backtest started",
		zap.String("run_id", d.runID),
		zap.String("strategy", d.strategy.Name()),
		zap.String("granularity", d.cfg.Granularity.String()),
		zap.Time("start", d.cfg.Start),
		zap.Time("end", d.cfg.End),
		zap.Int("instruments", len(universe)))

	start := dateOf(d.cfg.Start)
	end := dateOf(d.cfg.End)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		switch d.cfg.Granularity {
		case market.GranularityIntraday:
			if err := d.stepIntradayDay(ctx, universe, day); err != nil {
				d.state = StateDone
				return portfolio.Result{}, nil, nil, err
			}
		default:
			if err := d.stepDaily(ctx, universe, day); err != nil {
				d.state = StateDone
				return portfolio.Result{}, nil, nil, err
			}
		}
	}

	return d.finalize()
}

// stepDaily processes one calendar day at daily granularity.
func (d *Driver) stepDaily(ctx context.Context, universe []string, day time.Time) error {
	windows := make(map[string]market.Series, len(universe))
	marks := make(map[string]float64, len(universe))

	for _, inst := range universe {
		w, err := d.source.GetWindow(ctx, inst, endOfDay(day), market.GranularityDaily)
		if err != nil {
			return fmt.Errorf("data window %s@%s: %w", inst, day.Format("2006-01-02"), err)
		}
		w = w.Since(dateOf(d.cfg.Start))
		if w.Empty() {
			d.skips++
			d.log.Debug("no data, instrument skipped this step",
				zap.String("instrument", inst),
				zap.Time("day", day))
			continue
		}
		windows[inst] = w
		if c, ok := w.LatestClose(); ok {
			marks[inst] = c
		}
	}

	d.ledger.UpdateMarks(day, marks)

	if len(windows) > 0 {
		d.applySignals(d.strategy.OnStep(day, windows))
	}
	return nil
}

// stepIntradayDay processes one calendar day at intraday granularity:
// one nested step per distinct bar timestamp across all instruments.
func (d *Driver) stepIntradayDay(ctx context.Context, universe []string, day time.Time) error {
	dayStart := day
	full := make(map[string]market.Series, len(universe))

	for _, inst := range universe {
		w, err := d.source.GetWindow(ctx, inst, endOfDay(day), market.GranularityIntraday)
		if err != nil {
			return fmt.Errorf("data window %s@%s: %w", inst, day.Format("2006-01-02"), err)
		}
		w = w.Since(dateOf(d.cfg.Start))
		if !w.Empty() {
			full[inst] = w
		}
	}

	// Sorted union of this day's timestamps across all instruments.
	instantSet := make(map[time.Time]struct{})
	for _, w := range full {
		for _, b := range w.Since(dayStart) {
			instantSet[b.Time] = struct{}{}
		}
	}
	if len(instantSet) == 0 {
		d.skips++
		d.log.Debug("no intraday data for any instrument", zap.Time("day", day))
		return nil
	}
	instants := make([]time.Time, 0, len(instantSet))
	for t := range instantSet {
		instants = append(instants, t)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })

	for _, instant := range instants {
		windows := make(map[string]market.Series, len(full))
		marks := make(map[string]float64, len(full))

		for inst, w := range full {
			cut := w.WindowUpTo(instant)
			if cut.Empty() {
				continue
			}
			windows[inst] = cut
			if c, ok := cut.LatestClose(); ok {
				marks[inst] = c
			}
		}

		d.ledger.UpdateMarks(instant, marks)

		if len(windows) > 0 {
			d.applySignals(d.strategy.OnStep(instant, windows))
		}
	}
	return nil
}

// applySignals hands each signal to the ledger in the exact order the
// strategy returned them. HOLDs are no-ops; rejections are counted and the
// run continues.
func (d *Driver) applySignals(signals []portfolio.Signal) {
	for _, sig := range signals {
		if sig.Action == portfolio.Hold {
			continue
		}
		if !d.ledger.ApplyOrder(sig) {
			d.rejects++
		}
	}
}

// finalize runs the strategy's finish hook, reduces the ledger, and persists
// the record. A persistence failure is returned alongside the intact
// in-memory results; it never invalidates them.
func (d *Driver) finalize() (portfolio.Result, []portfolio.TradeRecord, []portfolio.Snapshot, error) {
	d.state = StateFinalizing

	d.strategy.OnFinish()

	result := d.ledger.Finalize()
	trades := d.ledger.Trades()
	snapshots := d.ledger.Snapshots()

	d.log.Info("backtest finished",
		zap.String("run_id", d.runID),
		zap.Float64("final_capital", result.FinalCapital),
		zap.Float64("total_return_pct", result.TotalReturnPct),
		zap.Int("trades", result.TotalTrades),
		zap.Int("skipped_steps", d.skips),
		zap.Int("rejected_orders", d.rejects))

	var persistErr error
	if d.store != nil {
		rec := d.record(result, trades, snapshots)
		if err := d.store.SaveRun(rec); err != nil {
			persistErr = fmt.Errorf("%w %s: %w", ErrPersist, d.runID, err)
			d.log.Error("persist failed", zap.Error(err))
		}
	}

	d.state = StateDone
	return result, trades, snapshots, persistErr
}

// Record builds the persistable run record from finished results.
func (d *Driver) record(result portfolio.Result, trades []portfolio.TradeRecord, snapshots []portfolio.Snapshot) journal.RunRecord {
	return journal.RunRecord{
		RunID:       d.runID,
		Created:     time.Now().UTC(),
		Strategy:    d.strategy.Name(),
		Granularity: d.cfg.Granularity.String(),
		Start:       d.cfg.Start,
		End:         d.cfg.End,
		Result:      result,
		Trades:      trades,
		Snapshots:   snapshots,
	}
}

// dateOf truncates t to midnight UTC.
func dateOf(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// endOfDay is the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return dateOf(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
