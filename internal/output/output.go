package output

import (
	"time"

	"github.com/maxvaer/vanityprobe/internal/scanner"
)

// Stats holds aggregate run statistics.
type Stats struct {
	Total        int
	Available    int
	Taken        int
	ErrorCount   int
	Duration     time.Duration
	ProbesPerSec float64
	Codes        []string // available codes, input order
	ResultsFile  string
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteResult(result *scanner.ProbeResult) error
	WriteFooter(stats Stats) error
	Close() error
}

// MultiWriter fans every call out to several writers, stopping at the
// first error.
type MultiWriter []Writer

func (m MultiWriter) WriteHeader() error {
	for _, w := range m {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) WriteResult(result *scanner.ProbeResult) error {
	for _, w := range m {
		if err := w.WriteResult(result); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) WriteFooter(stats Stats) error {
	for _, w := range m {
		if err := w.WriteFooter(stats); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every writer and returns the first error.
func (m MultiWriter) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
