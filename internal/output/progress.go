package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Progress tracks and displays probe progress on a single status line.
type Progress struct {
	w         io.Writer
	total     int
	completed atomic.Int64
	available atomic.Int64
	errors    atomic.Int64
	start     time.Time
	done      chan struct{}
	stopped   chan struct{}
	started   atomic.Bool
	stopOnce  sync.Once
	drawMu    sync.Mutex
	disabled  bool
}

// NewProgress creates a progress tracker writing to stderr. Call Start to
// begin display updates. A disabled tracker only counts.
func NewProgress(total int, disabled bool) *Progress {
	return newProgressTo(os.Stderr, total, disabled)
}

func newProgressTo(w io.Writer, total int, disabled bool) *Progress {
	return &Progress{
		w:        w,
		total:    total,
		start:    time.Now(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		disabled: disabled,
	}
}

// Start begins periodically redrawing the status line.
func (p *Progress) Start() {
	if p.disabled || !p.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Redraw()
			case <-p.done:
				p.Redraw()
				fmt.Fprint(p.w, "\n")
				return
			}
		}
	}()
}

// Increment records a completed probe.
func (p *Progress) Increment() { p.completed.Add(1) }

// IncrementAvailable records an available code.
func (p *Progress) IncrementAvailable() { p.available.Add(1) }

// IncrementErrors records an errored probe.
func (p *Progress) IncrementErrors() { p.errors.Add(1) }

// Completed returns the number of probes recorded so far.
func (p *Progress) Completed() int { return int(p.completed.Load()) }

// ClearLine erases the status line so a result line can be printed.
func (p *Progress) ClearLine() {
	if p.disabled {
		return
	}
	p.drawMu.Lock()
	defer p.drawMu.Unlock()
	fmt.Fprint(p.w, "\r\033[K")
}

// Redraw prints the current status line.
func (p *Progress) Redraw() {
	if p.disabled {
		return
	}
	p.drawMu.Lock()
	defer p.drawMu.Unlock()
	fmt.Fprint(p.w, p.line())
}

// Stop ends the progress display and waits for the final status line to be
// written. It is safe to call more than once.
func (p *Progress) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	if p.started.Load() {
		<-p.stopped
	}
}

func (p *Progress) line() string {
	completed := p.completed.Load()
	elapsed := time.Since(p.start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(completed) / elapsed
	}

	pct := float64(0)
	if p.total > 0 {
		pct = float64(completed) / float64(p.total) * 100
	}

	eta := ""
	if rate > 0 && completed < int64(p.total) {
		remaining := float64(int64(p.total)-completed) / rate
		eta = fmt.Sprintf("ETA: %s", time.Duration(remaining*float64(time.Second)).Round(time.Second))
	}

	return fmt.Sprintf("\r\033[K[%3.0f%%] %d/%d | %.2f probes/s | Available: %d | Errors: %d | %s",
		pct, completed, p.total, rate,
		p.available.Load(), p.errors.Load(), eta)
}
