package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/maxvaer/vanityprobe/internal/classify"
	"github.com/maxvaer/vanityprobe/internal/scanner"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorDim    = "\033[2m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// TextWriter writes one console line per probe and a closing summary.
type TextWriter struct {
	w       io.Writer
	noColor bool
	quiet   bool
}

// NewTextWriter creates a text output writer. If outputFile is empty, stdout
// is used. noColor disables ANSI escape codes. quiet keeps only available
// lines.
func NewTextWriter(outputFile string, noColor, quiet bool) (*TextWriter, error) {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
	}
	return &TextWriter{w: w, noColor: noColor, quiet: quiet}, nil
}

func (t *TextWriter) WriteHeader() error { return nil }

func (t *TextWriter) WriteResult(result *scanner.ProbeResult) error {
	if t.quiet && result.Outcome != classify.Available {
		return nil
	}

	var err error
	switch result.Outcome {
	case classify.Available:
		_, err = fmt.Fprintf(t.w, "%s %s\n", t.paint(colorGreen, "[AVAILABLE]"), result.Candidate)
	case classify.Taken:
		_, err = fmt.Fprintf(t.w, "%s %s\n", t.paint(colorDim, "[TAKEN]"), result.Candidate)
	default:
		reason := "unknown error"
		if result.Error != nil {
			reason = result.Error.Error()
		}
		_, err = fmt.Fprintf(t.w, "%s %s - %s\n", t.paint(colorRed, "[ERROR]"), result.Candidate, reason)
	}
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if t.quiet {
		return nil
	}
	if _, err := fmt.Fprintf(t.w,
		"\n[INFO] Check completed: %d probed | %d available | %d taken | %d errors | %s | %.1f probes/s\n",
		stats.Total,
		stats.Available,
		stats.Taken,
		stats.ErrorCount,
		stats.Duration.Round(time.Millisecond),
		stats.ProbesPerSec,
	); err != nil {
		return err
	}

	if len(stats.Codes) == 0 {
		_, err := fmt.Fprintln(t.w, "[INFO] No available codes found.")
		return err
	}
	if _, err := fmt.Fprintf(t.w, "%s Found %d available code(s):\n", t.paint(colorYellow, "[SUCCESS]"), len(stats.Codes)); err != nil {
		return err
	}
	for _, code := range stats.Codes {
		if _, err := fmt.Fprintf(t.w, "  - %s\n", code); err != nil {
			return err
		}
	}
	if stats.ResultsFile != "" {
		_, err := fmt.Fprintf(t.w, "[INFO] Saved to %s\n", stats.ResultsFile)
		return err
	}
	return nil
}

func (t *TextWriter) Close() error {
	if closer, ok := t.w.(io.Closer); ok && t.w != os.Stdout {
		return closer.Close()
	}
	return nil
}

func (t *TextWriter) paint(color, s string) string {
	if t.noColor {
		return s
	}
	return color + s + colorReset
}
