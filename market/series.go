package market

import (
	"sort"
	"time"
)

// Series is an ascending-time sequence of bars for a single instrument.
// Once built it is treated as immutable; slicing methods return sub-slices
// that share the backing array.
type Series []Bar

// Empty reports whether the series holds no bars.
func (s Series) Empty() bool { return len(s) == 0 }

// Last returns the most recent bar. It panics on an empty series; callers
// check Empty first.
func (s Series) Last() Bar { return s[len(s)-1] }

// LatestClose returns the close of the most recent bar, with ok=false when
// the series is empty.
func (s Series) LatestClose() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Close, true
}

// WindowUpTo returns the prefix of the series whose bars are stamped at or
// before t. This is the lookahead cut: nothing after t ever appears in a
// strategy window.
func (s Series) WindowUpTo(t time.Time) Series {
	i := sort.Search(len(s), func(i int) bool { return s[i].Time.After(t) })
	return s[:i]
}

// Since returns the suffix of the series whose bars are stamped at or after t.
func (s Series) Since(t time.Time) Series {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Time.Before(t) })
	return s[i:]
}

// Closes returns the close prices in time order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// SortByTime orders bars ascending by timestamp. Builders call this once
// before handing the series out.
func SortByTime(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}
