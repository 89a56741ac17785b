package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maxvaer/vanityprobe/internal/classify"
	"github.com/maxvaer/vanityprobe/internal/scanner"
)

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(data)), nil
}

func sampleResults() []scanner.ProbeResult {
	return []scanner.ProbeResult{
		{Index: 0, Candidate: "foo", Outcome: classify.Available, StatusCode: 404, URL: "http://x/foo"},
		{Index: 1, Candidate: "bar", Outcome: classify.Taken, StatusCode: 200, URL: "http://x/bar"},
		{Index: 2, Candidate: "baz", Outcome: classify.Errored, Error: errors.New("timeout"), URL: "http://x/baz"},
	}
}

func sampleStats() Stats {
	return Stats{Total: 3, Available: 1, Taken: 1, ErrorCount: 1, Duration: 2 * time.Second, Codes: []string{"foo"}}
}

func TestResultFileTruncatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "available.txt")

	rf, err := OpenResultFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := rf.Append("old"); err != nil {
		t.Fatal(err)
	}
	rf.Close()

	rf, err = OpenResultFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	for _, code := range []string{"foo", "bar"} {
		if err := rf.Append(code); err != nil {
			t.Fatal(err)
		}
		// Each append is visible on disk immediately.
		lines, err := readLines(path)
		if err != nil {
			t.Fatal(err)
		}
		if lines[len(lines)-1] != code {
			t.Errorf("last line = %q, want %q", lines[len(lines)-1], code)
		}
	}

	lines, _ := readLines(path)
	if strings.Join(lines, ",") != "foo,bar" {
		t.Errorf("lines = %v, want [foo bar]", lines)
	}
}

func TestResultFileKeepsContentsWithoutTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "available.txt")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rf, err := OpenResultFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := rf.Append("new"); err != nil {
		t.Fatal(err)
	}
	rf.Close()

	lines, _ := readLines(path)
	if strings.Join(lines, ",") != "old,new" {
		t.Errorf("lines = %v, want [old new]", lines)
	}
}

func TestResultFileConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "available.txt")
	rf, err := OpenResultFile(path, true)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rf.Append("code")
		}()
	}
	wg.Wait()

	lines, _ := readLines(path)
	if len(lines) != 20 {
		t.Fatalf("expected 20 whole lines, got %d", len(lines))
	}
	for _, l := range lines {
		if l != "code" {
			t.Fatalf("interleaved write: %q", l)
		}
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{w: &buf, noColor: true}

	for _, r := range sampleResults() {
		r := r
		if err := w.WriteResult(&r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.WriteFooter(sampleStats()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"[AVAILABLE] foo\n",
		"[TAKEN] bar\n",
		"[ERROR] baz - timeout\n",
		"3 probed | 1 available | 1 taken | 1 errors",
		"Found 1 available code(s):\n  - foo\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("noColor output contains ANSI escapes")
	}
}

func TestTextWriterQuiet(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{w: &buf, noColor: true, quiet: true}
	for _, r := range sampleResults() {
		r := r
		_ = w.WriteResult(&r)
	}
	_ = w.WriteFooter(sampleStats())

	if got := buf.String(); got != "[AVAILABLE] foo\n" {
		t.Errorf("quiet output = %q, want only the available line", got)
	}
}

func TestTextWriterNoAvailable(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{w: &buf, noColor: true}
	_ = w.WriteFooter(Stats{Total: 2, Taken: 2})
	if !strings.Contains(buf.String(), "No available codes found.") {
		t.Errorf("unexpected footer: %q", buf.String())
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range sampleResults() {
		r := r
		_ = w.WriteResult(&r)
	}
	if err := w.WriteFooter(sampleStats()); err != nil {
		t.Fatal(err)
	}
	w.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var report jsonReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(report.Probes) != 3 || report.Total != 3 {
		t.Errorf("report = %+v", report)
	}
	if report.Probes[2].Error != "timeout" || report.Probes[2].Outcome != "error" {
		t.Errorf("errored entry = %+v", report.Probes[2])
	}
	if len(report.Available) != 1 || report.Available[0] != "foo" {
		t.Errorf("available = %v", report.Available)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = w.WriteHeader()
	for _, r := range sampleResults() {
		r := r
		_ = w.WriteResult(&r)
	}
	_ = w.WriteFooter(sampleStats())
	w.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "foo" || rows[1][1] != "available" || rows[1][2] != "404" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestMultiWriterFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := MultiWriter{&TextWriter{w: &a, noColor: true}, &TextWriter{w: &b, noColor: true}}
	r := sampleResults()[0]
	if err := m.WriteResult(&r); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() || a.Len() == 0 {
		t.Errorf("writers diverged: %q vs %q", a.String(), b.String())
	}
}

func TestProgressLine(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressTo(&buf, 4, false)
	p.Increment()
	p.Increment()
	p.IncrementAvailable()
	p.IncrementErrors()
	p.Redraw()

	out := buf.String()
	if !strings.Contains(out, "2/4") || !strings.Contains(out, "Available: 1") || !strings.Contains(out, "Errors: 1") {
		t.Errorf("unexpected progress line %q", out)
	}
	p.Stop()
	p.Stop()
}

func TestProgressStopFlushesFinalLine(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressTo(&buf, 2, false)
	p.Start()
	p.Increment()
	p.Increment()
	p.Stop()

	// The final redraw and newline are written before Stop returns.
	out := buf.String()
	if !strings.HasSuffix(out, "\n") || !strings.Contains(out, "2/2") {
		t.Errorf("final status line not flushed: %q", out)
	}
	p.Stop()
}

func TestProgressDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressTo(&buf, 1, true)
	p.Start()
	p.Increment()
	p.ClearLine()
	p.Redraw()
	p.Stop()
	if buf.Len() != 0 {
		t.Errorf("disabled progress wrote %q", buf.String())
	}
	if p.Completed() != 1 {
		t.Errorf("Completed() = %d, want 1", p.Completed())
	}
}
