package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vanityprobe_probes_total",
		Help: "Probes performed, by outcome",
	}, []string{"outcome"})

	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vanityprobe_probe_duration_seconds",
		Help:    "Latency of availability lookups",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to 6.4s
	})

	EgressEndpoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vanityprobe_egress_endpoints",
		Help: "Proxy endpoints in rotation (0 = direct connection)",
	})

	CandidatesRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vanityprobe_candidates_remaining",
		Help: "Candidates not yet probed in the current run",
	})
)

// Observe records one finished probe.
func Observe(outcome string, d time.Duration) {
	ProbesTotal.WithLabelValues(outcome).Inc()
	ProbeDuration.Observe(d.Seconds())
	CandidatesRemaining.Dec()
}

// StartServer serves /metrics on addr until ctx is done. Listener errors
// are logged; they never stop the run.
func StartServer(ctx context.Context, addr string, log logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics listener stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Infof("serving metrics on %s/metrics", addr)
}
