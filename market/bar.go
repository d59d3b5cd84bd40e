// Package market defines the bar-level price data the simulator replays:
// OHLCV bars, per-instrument ordered series, and window slicing.
package market

import "time"

// Bar is one OHLCV observation for an instrument at a timestamp.
// Daily bars are stamped at midnight UTC of their trading day.
type Bar struct {
	Instrument string
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
}

// Granularity selects the time step of a simulation run.
type Granularity string

const (
	GranularityDaily    Granularity = "daily"
	GranularityIntraday Granularity = "intraday"
)

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	return g == GranularityDaily || g == GranularityIntraday
}

func (g Granularity) String() string { return string(g) }
