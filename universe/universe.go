// Package universe lists the instruments a backtest may trade. Filtering of
// ineligible share classes happens here, entirely outside the simulation
// core.
package universe

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provider yields the instrument universe for a run.
type Provider interface {
	ListInstruments() ([]string, error)
}

// Static is a fixed universe. ListInstruments returns a sorted copy.
type Static []string

func (s Static) ListInstruments() ([]string, error) {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out, nil
}

// fileProvider reads one instrument id per line; blank lines and #-comments
// are ignored.
type fileProvider struct {
	path string
}

// FromFile returns a provider backed by a plain-text instrument list.
func FromFile(path string) Provider {
	return fileProvider{path: path}
}

func (p fileProvider) ListInstruments() ([]string, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids, nil
}
