package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/equitysim/market"
)

// CSVSource serves bars from a directory tree:
//
//	<dir>/daily/<instrument>.csv
//	<dir>/intraday/<instrument>.csv
//
// Rows are "time,open,high,low,close,volume" with time in RFC3339 or
// 2006-01-02 (daily). A header row is allowed. Files may be xz-compressed
// with a .csv.xz suffix. Each file is parsed once and cached.
type CSVSource struct {
	dir string

	mu    sync.Mutex
	cache map[string]market.Series // key: granularity/instrument
}

// NewCSVSource creates a source rooted at dir. Missing files surface as
// empty series at query time, not as construction errors.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{
		dir:   dir,
		cache: make(map[string]market.Series),
	}
}

// GetWindow implements Source.
func (s *CSVSource) GetWindow(_ context.Context, instrument string, asOf time.Time, g market.Granularity) (market.Series, error) {
	series, err := s.load(instrument, g)
	if err != nil {
		return nil, err
	}
	return series.WindowUpTo(asOf), nil
}

func (s *CSVSource) load(instrument string, g market.Granularity) (market.Series, error) {
	key := string(g) + "/" + instrument

	s.mu.Lock()
	defer s.mu.Unlock()

	if series, ok := s.cache[key]; ok {
		return series, nil
	}

	base := filepath.Join(s.dir, string(g), instrument)

	var (
		bars []market.Bar
		err  error
	)
	switch {
	case fileExists(base + ".csv"):
		bars, err = ReadBarsFile(base+".csv", instrument)
	case fileExists(base + ".csv.xz"):
		bars, err = ReadBarsFile(base+".csv.xz", instrument)
	default:
		// No data for this instrument; remember the empty answer.
		s.cache[key] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	market.SortByTime(bars)
	series := market.Series(bars)
	s.cache[key] = series
	return series, nil
}

// ReadBarsFile parses one bar CSV, transparently decompressing .xz files.
func ReadBarsFile(path, instrument string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		src = xr
	}

	return readBars(src, instrument)
}

func readBars(src io.Reader, instrument string) ([]market.Bar, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	var bars []market.Bar
	sawFirst := false

	for {
		row, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row.
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, ok, err := parseBarRow(row, instrument)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bars = append(bars, b)
	}
}

func parseBarRow(row []string, instrument string) (market.Bar, bool, error) {
	// Need time,open,high,low,close,volume.
	if len(row) < 6 {
		return market.Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return market.Bar{}, false, nil
	}
	t, err := parseBarTime(ts)
	if err != nil {
		return market.Bar{}, false, err
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad %s %q: %w", []string{"open", "high", "low", "close"}[i], row[i+1], err)
		}
		vals[i] = v
	}

	vol, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad volume %q: %w", row[5], err)
	}

	return market.Bar{
		Instrument: instrument,
		Time:       t,
		Open:       vals[0],
		High:       vals[1],
		Low:        vals[2],
		Close:      vals[3],
		Volume:     vol,
	}, true, nil
}

func parseBarTime(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", ts, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q", ts)
	}
	return t, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
