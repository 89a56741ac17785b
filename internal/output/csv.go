package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/maxvaer/vanityprobe/internal/scanner"
)

// CSVWriter writes one row per probe.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"code", "outcome", "status", "egress", "duration_ms", "error"})
}

func (c *CSVWriter) WriteResult(result *scanner.ProbeResult) error {
	errText := ""
	if result.Error != nil {
		errText = result.Error.Error()
	}
	if err := c.w.Write([]string{
		result.Candidate,
		result.Outcome.String(),
		strconv.Itoa(result.StatusCode),
		result.Egress,
		strconv.FormatInt(result.Duration.Milliseconds(), 10),
		errText,
	}); err != nil {
		return err
	}
	// Rows are flushed as they arrive so an interrupted run keeps its report.
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
