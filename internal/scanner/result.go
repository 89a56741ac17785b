package scanner

import (
	"sort"
	"time"

	"github.com/maxvaer/vanityprobe/internal/classify"
)

// ProbeResult holds the outcome of a single candidate probe.
type ProbeResult struct {
	Index      int // position in the input list
	Candidate  string
	URL        string
	Egress     string // redacted proxy URL, empty for a direct connection
	StatusCode int
	Outcome    classify.Outcome
	Duration   time.Duration
	Error      error
}

// ResultSet is the ordered, duplicate-free set of available candidates.
type ResultSet struct {
	entries []resultEntry
	seen    map[string]struct{}
}

type resultEntry struct {
	index int
	code  string
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{seen: make(map[string]struct{})}
}

// Add records an available candidate at its input index. Repeated codes are
// ignored; it reports whether the code was new.
func (s *ResultSet) Add(index int, code string) bool {
	if _, ok := s.seen[code]; ok {
		return false
	}
	s.seen[code] = struct{}{}
	s.entries = append(s.entries, resultEntry{index: index, code: code})
	return true
}

// Contains reports whether code was classified available.
func (s *ResultSet) Contains(code string) bool {
	_, ok := s.seen[code]
	return ok
}

// Len returns the number of available candidates.
func (s *ResultSet) Len() int { return len(s.entries) }

// Codes returns the available candidates in input order.
func (s *ResultSet) Codes() []string {
	sorted := make([]resultEntry, len(s.entries))
	copy(sorted, s.entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].index < sorted[j].index })
	codes := make([]string, len(sorted))
	for i, e := range sorted {
		codes[i] = e.code
	}
	return codes
}
