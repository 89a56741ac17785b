package classify

import (
	"fmt"
	"net/http"
	"strings"
)

// Outcome is the classification of a single probe.
type Outcome int

const (
	Errored Outcome = iota
	Taken
	Available
)

func (o Outcome) String() string {
	switch o {
	case Taken:
		return "taken"
	case Available:
		return "available"
	default:
		return "error"
	}
}

// Policy names accepted by ParsePolicy.
const (
	PolicyStrict = "strict"
	PolicyLegacy = "legacy"
)

// Policy maps HTTP status codes to outcomes. Codes in the available set mean
// the identifier is unclaimed; 2xx/3xx outside it mean taken. Anything else
// is an error under a strict policy and taken otherwise.
type Policy struct {
	available map[int]struct{}
	strict    bool
}

// NewPolicy creates a policy. An empty available list defaults to 404.
func NewPolicy(available []int, strict bool) *Policy {
	if len(available) == 0 {
		available = []int{http.StatusNotFound}
	}
	p := &Policy{
		available: make(map[int]struct{}, len(available)),
		strict:    strict,
	}
	for _, code := range available {
		p.available[code] = struct{}{}
	}
	return p
}

// ParsePolicy builds the named policy with the default available set.
func ParsePolicy(name string) (*Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyStrict:
		return NewPolicy(nil, true), nil
	case PolicyLegacy:
		return NewPolicy(nil, false), nil
	default:
		return nil, fmt.Errorf("unknown status policy %q (want %s or %s)", name, PolicyStrict, PolicyLegacy)
	}
}

// Strict reports whether unexpected statuses are treated as errors.
func (p *Policy) Strict() bool { return p.strict }

// Classify returns the outcome for a response status. The error is non-nil
// only for Errored outcomes.
func (p *Policy) Classify(status int) (Outcome, error) {
	if _, ok := p.available[status]; ok {
		return Available, nil
	}
	if status >= 200 && status < 400 {
		return Taken, nil
	}
	if !p.strict {
		return Taken, nil
	}
	return Errored, &StatusError{StatusCode: status}
}

// StatusError reports a response status that is neither available nor taken.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
