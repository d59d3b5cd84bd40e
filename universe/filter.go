package universe

import "regexp"

// Name-pattern heuristics for Korean listings: SPACs carry a "<n>호" series
// suffix, preferred share classes end in "우" variants, REITs contain "리츠".
var (
	spacPattern      = regexp.MustCompile(`\d+호`)
	preferredPattern = regexp.MustCompile(`([0-9]+우|[가-힣]우[A-Z]?)$`)
	reitPattern      = regexp.MustCompile(`리츠`)
)

// IsSpecialClass reports whether an instrument name looks like a SPAC,
// preferred share, or REIT listing.
func IsSpecialClass(name string) bool {
	if spacPattern.MatchString(name) {
		return true
	}
	if len([]rune(name)) >= 3 && preferredPattern.MatchString(name) {
		return true
	}
	return reitPattern.MatchString(name)
}

// filtered wraps a provider and drops instruments whose names match the
// special-class heuristics. Instruments without a known name pass through.
type filtered struct {
	inner     Provider
	namesByID map[string]string
}

// ExcludeSpecialClasses filters p by instrument name.
func ExcludeSpecialClasses(p Provider, namesByID map[string]string) Provider {
	return filtered{inner: p, namesByID: namesByID}
}

func (f filtered) ListInstruments() ([]string, error) {
	ids, err := f.inner.ListInstruments()
	if err != nil {
		return nil, err
	}

	out := ids[:0]
	for _, id := range ids {
		if name, ok := f.namesByID[id]; ok && IsSpecialClass(name) {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
