package scanner

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Throttler owns the inter-probe delay. The base delay is mandatory; with
// adaptive mode on, 429/503 responses and runs of transport errors double
// it (capped at maxBackoff) and healthy responses halve it back toward base.
// The delay never drops below base.
type Throttler struct {
	mu           sync.Mutex
	baseDelay    time.Duration
	currentDelay time.Duration
	consecutive  int
	adaptive     bool
	log          logrus.FieldLogger
}

// NewThrottler creates a throttler with the given base delay.
func NewThrottler(baseDelay time.Duration, adaptive bool, log logrus.FieldLogger) *Throttler {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Throttler{
		baseDelay:    baseDelay,
		currentDelay: baseDelay,
		adaptive:     adaptive,
		log:          log,
	}
}

// Delay returns the pause to apply between two probes.
func (t *Throttler) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentDelay
}

// RecordStatus updates the throttler from a response status code.
func (t *Throttler) RecordStatus(statusCode int) {
	if !t.adaptive {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable {
		t.consecutive++
		if t.backoffLocked() {
			t.log.WithField("status", statusCode).Warnf("rate limited, backing off to %s/probe", t.currentDelay)
		}
		return
	}

	if t.consecutive == 0 {
		return
	}
	t.consecutive = 0
	newDelay := t.currentDelay / 2
	if newDelay < t.baseDelay {
		newDelay = t.baseDelay
	}
	if newDelay != t.currentDelay {
		t.currentDelay = newDelay
		t.log.Infof("recovering, delay now %s/probe", t.currentDelay)
	}
}

// RecordError counts a transport failure; three in a row trigger back-off.
func (t *Throttler) RecordError() {
	if !t.adaptive {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive++
	if t.consecutive >= 3 && t.backoffLocked() {
		t.log.Warnf("repeated errors, backing off to %s/probe", t.currentDelay)
	}
}

func (t *Throttler) backoffLocked() bool {
	newDelay := t.currentDelay * 2
	if newDelay < minBackoff {
		newDelay = minBackoff
	}
	if newDelay > maxBackoff {
		newDelay = maxBackoff
	}
	if newDelay == t.currentDelay {
		return false
	}
	t.currentDelay = newDelay
	return true
}
