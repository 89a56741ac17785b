package classify

import (
	"errors"
	"testing"
)

func TestStrictPolicy(t *testing.T) {
	p := NewPolicy(nil, true)

	tests := []struct {
		status int
		want   Outcome
	}{
		{200, Taken},
		{204, Taken},
		{301, Taken},
		{404, Available},
		{401, Errored},
		{429, Errored},
		{500, Errored},
		{503, Errored},
	}
	for _, tt := range tests {
		got, err := p.Classify(tt.status)
		if got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.status, got, tt.want)
		}
		if (got == Errored) != (err != nil) {
			t.Errorf("Classify(%d) err = %v, want error only for Errored", tt.status, err)
		}
	}
}

func TestLegacyPolicyTreatsUnexpectedAsTaken(t *testing.T) {
	p := NewPolicy(nil, false)

	for _, status := range []int{401, 429, 500} {
		got, err := p.Classify(status)
		if got != Taken || err != nil {
			t.Errorf("Classify(%d) = (%s, %v), want (taken, nil)", status, got, err)
		}
	}
	if got, _ := p.Classify(404); got != Available {
		t.Errorf("Classify(404) = %s, want available", got)
	}
}

func TestCustomAvailableSet(t *testing.T) {
	p := NewPolicy([]int{404, 410}, true)
	if got, _ := p.Classify(410); got != Available {
		t.Errorf("Classify(410) = %s, want available", got)
	}
}

func TestStatusError(t *testing.T) {
	_, err := NewPolicy(nil, true).Classify(429)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", se.StatusCode)
	}
	if se.Error() != "unexpected status 429 Too Many Requests" {
		t.Errorf("Error() = %q", se.Error())
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{name: "", strict: true},
		{name: "strict", strict: true},
		{name: "LEGACY", strict: false},
		{name: "lenient", wantErr: true},
	}
	for _, tt := range tests {
		p, err := ParsePolicy(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParsePolicy(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err == nil && p.Strict() != tt.strict {
			t.Errorf("ParsePolicy(%q).Strict() = %v, want %v", tt.name, p.Strict(), tt.strict)
		}
	}
}
