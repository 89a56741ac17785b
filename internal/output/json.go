package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/maxvaer/vanityprobe/internal/scanner"
)

type jsonEntry struct {
	Code       string `json:"code"`
	URL        string `json:"url"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status,omitempty"`
	Egress     string `json:"egress,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type jsonReport struct {
	Probes    []jsonEntry `json:"probes"`
	Available []string    `json:"available"`
	Total     int         `json:"total"`
	Taken     int         `json:"taken"`
	Errors    int         `json:"errors"`
}

// JSONWriter buffers every probe and writes one JSON document at the end.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
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
	return &JSONWriter{w: w, closer: closer}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(result *scanner.ProbeResult) error {
	e := jsonEntry{
		Code:       result.Candidate,
		URL:        result.URL,
		Outcome:    result.Outcome.String(),
		StatusCode: result.StatusCode,
		Egress:     result.Egress,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Error != nil {
		e.Error = result.Error.Error()
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	codes := stats.Codes
	if codes == nil {
		codes = []string{}
	}
	entries := j.entries
	if entries == nil {
		entries = []jsonEntry{}
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Probes:    entries,
		Available: codes,
		Total:     stats.Total,
		Taken:     stats.Taken,
		Errors:    stats.ErrorCount,
	})
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
