package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/maxvaer/vanityprobe/internal/classify"
	"github.com/maxvaer/vanityprobe/internal/rotator"
)

// ErrNoCandidates is returned by Run when there is nothing to probe.
var ErrNoCandidates = errors.New("no candidates to probe")

// Sink durably records available candidates as they are found.
type Sink interface {
	Append(candidate string) error
}

// ProberConfig holds the collaborators of a Prober.
type ProberConfig struct {
	Rotator   *rotator.Rotator  // nil = always direct
	Policy    *classify.Policy  // nil = strict, 404 available
	Sink      Sink              // nil = in-memory only
	Throttler *Throttler        // nil = no delay
	Pauser    *Pauser           // nil = no pause support
	Workers   int               // <= 1 = strictly sequential
	OnResult  func(ProbeResult) // called once per probed candidate
	Logger    logrus.FieldLogger
}

// Prober checks candidates one probe each, rotating egress and spacing
// probes by the throttler delay.
type Prober struct {
	req   *Requester
	cfg   ProberConfig
	locks egressLocks
}

// NewProber creates a Prober.
func NewProber(req *Requester, cfg ProberConfig) *Prober {
	if cfg.Rotator == nil {
		cfg.Rotator = rotator.New(nil)
	}
	if cfg.Policy == nil {
		cfg.Policy = classify.NewPolicy(nil, true)
	}
	if cfg.Throttler == nil {
		cfg.Throttler = NewThrottler(0, false, cfg.Logger)
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		cfg.Logger = l
	}
	return &Prober{req: req, cfg: cfg, locks: egressLocks{m: make(map[string]*sync.Mutex)}}
}

// Run probes every candidate and returns the available ones in input order.
// Per-probe failures are reported through OnResult and never abort the run;
// a cancelled context or a sink write failure does, returning the partial
// result set with the error.
func (p *Prober) Run(ctx context.Context, candidates []string) (*ResultSet, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	workers := p.workerCount(len(candidates))
	if workers <= 1 {
		return p.runSequential(ctx, candidates)
	}
	return p.runConcurrent(ctx, candidates, workers)
}

// workerCount caps concurrency at one worker per distinct egress so no
// endpoint ever carries two probes at once.
func (p *Prober) workerCount(n int) int {
	workers := p.cfg.Workers
	egresses := p.cfg.Rotator.Len()
	if egresses == 0 {
		egresses = 1
	}
	if workers > egresses {
		p.cfg.Logger.Warnf("capping workers at %d (one per egress endpoint)", egresses)
		workers = egresses
	}
	if workers > n {
		workers = n
	}
	return workers
}

func (p *Prober) runSequential(ctx context.Context, candidates []string) (*ResultSet, error) {
	rs := NewResultSet()
	for i, candidate := range candidates {
		if p.cfg.Pauser != nil {
			if err := p.cfg.Pauser.Wait(ctx); err != nil {
				return rs, err
			}
		}

		result := p.probe(ctx, i, candidate)
		if err := ctx.Err(); err != nil {
			return rs, err
		}
		if err := p.record(rs, result); err != nil {
			return rs, err
		}

		if i < len(candidates)-1 {
			if err := sleepCtx(ctx, p.cfg.Throttler.Delay()); err != nil {
				return rs, err
			}
		}
	}
	return rs, nil
}

type job struct {
	index     int
	candidate string
}

func (p *Prober) runConcurrent(parent context.Context, candidates []string, workers int) (*ResultSet, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	limiter := rate.NewLimiter(limitFor(p.cfg.Throttler.Delay()), 1)
	jobs := make(chan job)
	results := make(chan ProbeResult, workers)

	go func() {
		defer close(jobs)
		for i, c := range candidates {
			select {
			case jobs <- job{index: i, candidate: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if p.cfg.Pauser != nil {
					if err := p.cfg.Pauser.Wait(ctx); err != nil {
						return
					}
				}
				limiter.SetLimit(limitFor(p.cfg.Throttler.Delay()))
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				result := p.probe(ctx, j.index, j.candidate)
				if ctx.Err() != nil {
					return
				}
				results <- result
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	rs := NewResultSet()
	var runErr error
	for result := range results {
		if runErr != nil {
			continue
		}
		if err := p.record(rs, result); err != nil {
			runErr = err
			cancel()
		}
	}
	if runErr != nil {
		return rs, runErr
	}
	if err := parent.Err(); err != nil {
		return rs, err
	}
	return rs, nil
}

// probe issues exactly one request for candidate and classifies it.
func (p *Prober) probe(ctx context.Context, index int, candidate string) ProbeResult {
	result := ProbeResult{
		Index:     index,
		Candidate: candidate,
		URL:       p.req.URLFor(candidate),
	}

	egress, ok := p.cfg.Rotator.Next()
	unlock := p.locks.lock(egress)
	defer unlock()
	if ok {
		result.Egress = egress.Redacted()
	}

	start := time.Now()
	resp, err := p.req.Do(ctx, candidate, egress)
	result.Duration = time.Since(start)
	if err != nil {
		p.cfg.Throttler.RecordError()
		result.Outcome = classify.Errored
		result.Error = err
		return result
	}

	p.cfg.Throttler.RecordStatus(resp.StatusCode)
	result.StatusCode = resp.StatusCode
	result.Outcome, result.Error = p.cfg.Policy.Classify(resp.StatusCode)
	return result
}

// record persists an available candidate before announcing the result, so
// anything reported as available is already on disk.
func (p *Prober) record(rs *ResultSet, result ProbeResult) error {
	if result.Outcome == classify.Available && !rs.Contains(result.Candidate) {
		if p.cfg.Sink != nil {
			if err := p.cfg.Sink.Append(result.Candidate); err != nil {
				return fmt.Errorf("recording %s: %w", result.Candidate, err)
			}
		}
		rs.Add(result.Index, result.Candidate)
	}

	p.cfg.Logger.WithFields(logrus.Fields{
		"candidate": result.Candidate,
		"outcome":   result.Outcome.String(),
		"status":    result.StatusCode,
		"egress":    result.Egress,
	}).Debug("probe finished")

	if p.cfg.OnResult != nil {
		p.cfg.OnResult(result)
	}
	return nil
}

// egressLocks serializes probes per egress endpoint. The direct connection
// counts as one endpoint.
type egressLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *egressLocks) lock(egress *url.URL) func() {
	key := ""
	if egress != nil {
		key = egress.String()
	}
	l.mu.Lock()
	m, ok := l.m[key]
	if !ok {
		m = &sync.Mutex{}
		l.m[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
