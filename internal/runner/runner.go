package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxvaer/vanityprobe/internal/classify"
	"github.com/maxvaer/vanityprobe/internal/config"
	"github.com/maxvaer/vanityprobe/internal/hook"
	"github.com/maxvaer/vanityprobe/internal/metrics"
	"github.com/maxvaer/vanityprobe/internal/output"
	"github.com/maxvaer/vanityprobe/internal/resume"
	"github.com/maxvaer/vanityprobe/internal/rotator"
	"github.com/maxvaer/vanityprobe/internal/scanner"
	"github.com/maxvaer/vanityprobe/internal/wordlist"
	"github.com/maxvaer/vanityprobe/pkg/version"
)

// ConfigError reports a problem that prevents any probing, such as a
// missing or empty candidate list.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// Report is what a finished run hands back to the caller.
type Report struct {
	Stats     output.Stats
	Available []string
}

// Run executes the full pipeline: load candidates and proxies, probe every
// candidate, then print the summary. Only configuration problems and
// results-file failures are returned as errors.
func Run(ctx context.Context, opts *config.Options, log logrus.FieldLogger) (*Report, error) {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	// 1. Proxies first; a bad proxy file only degrades to direct mode.
	rot := loadRotator(opts.ProxiesFile, log)
	metrics.EgressEndpoints.Set(float64(rot.Len()))

	// 2. Candidates.
	candidates, err := wordlist.Load(opts.CandidatesFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%s not found; create it with one code per line: %w", opts.CandidatesFile, wordlist.ErrNoCandidates)
		}
		return nil, &ConfigError{Err: err}
	}

	policy, err := classify.ParsePolicy(opts.StatusPolicy)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	req, err := scanner.NewRequester(opts)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	defer req.CloseIdleConnections()

	// 3. Resume support.
	var resumeState *resume.State
	truncate := true
	if opts.ResumeFile != "" {
		existing, err := resume.Load(opts.ResumeFile)
		if err != nil {
			return nil, fmt.Errorf("loading resume file: %w", err)
		}
		if existing != nil && existing.Matches(opts.CandidatesFile) {
			resumeState = existing
			before := len(candidates)
			candidates = resumeState.FilterRemaining(candidates)
			truncate = false
			log.Infof("resuming: skipping %d already probed candidates", before-len(candidates))
		} else {
			resumeState = resume.New(opts.ResumeFile, opts.CandidatesFile, len(candidates))
		}
	}

	// 4. Results file: a fresh run never mixes with earlier results.
	results, err := output.OpenResultFile(opts.OutputFile, truncate)
	if err != nil {
		return nil, err
	}
	defer results.Close()

	var previous []string
	if resumeState != nil {
		previous = resumeState.PreviouslyAvailable()
	}

	// 5. Output writers.
	out, err := createWriters(opts)
	if err != nil {
		return nil, fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()
	if err := out.WriteHeader(); err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		log.Info("all candidates already probed")
		if resumeState != nil {
			_ = resumeState.Remove()
		}
		report := &Report{Available: previous}
		report.Stats = output.Stats{Codes: previous, Available: len(previous), ResultsFile: results.Path()}
		return report, out.WriteFooter(report.Stats)
	}

	if opts.MetricsListen != "" {
		metrics.StartServer(ctx, opts.MetricsListen, log)
	}

	log.WithFields(logrus.Fields{
		"version":    version.Version,
		"candidates": len(candidates),
		"proxies":    rot.Len(),
		"delay":      opts.Delay,
		"workers":    opts.Workers,
	}).Infof("checking %d codes against %s", len(candidates), opts.BaseURL)
	log.Infof("available codes will be saved to %s", results.Path())

	// 6. Pause toggle, throttler, hook.
	pauser, restoreTerm := startStdinToggle(opts.NoProgress || opts.Quiet, log)
	defer restoreTerm()

	throttler := scanner.NewThrottler(opts.Delay, opts.AdaptiveThrottle, log)
	if !policy.Strict() {
		log.Warn("legacy status policy: unexpected status codes count as taken")
	}

	var hookRunner *hook.Runner
	if opts.OnAvailable != "" {
		hookRunner = hook.NewRunner(opts.OnAvailable, log)
	}

	progress := output.NewProgress(len(candidates), opts.Quiet || opts.NoProgress)
	metrics.CandidatesRemaining.Set(float64(len(candidates)))

	var stats output.Stats
	var writeErr error
	onResult := func(result scanner.ProbeResult) {
		progress.Increment()
		stats.Total++
		switch result.Outcome {
		case classify.Available:
			stats.Available++
			progress.IncrementAvailable()
		case classify.Taken:
			stats.Taken++
		default:
			stats.ErrorCount++
			progress.IncrementErrors()
			log.WithError(result.Error).WithField("code", result.Candidate).Debug("probe failed")
		}
		metrics.Observe(result.Outcome.String(), result.Duration)

		if resumeState != nil {
			resumeState.MarkCompleted(result.Candidate, result.Outcome == classify.Available)
		}

		progress.ClearLine()
		if err := out.WriteResult(&result); err != nil && writeErr == nil {
			writeErr = err
		}
		progress.Redraw()

		if hookRunner != nil && result.Outcome == classify.Available {
			hookRunner.Run(ctx, &result)
		}
	}

	prober := scanner.NewProber(req, scanner.ProberConfig{
		Rotator:   rot,
		Policy:    policy,
		Sink:      results,
		Throttler: throttler,
		Pauser:    pauser,
		Workers:   opts.Workers,
		OnResult:  onResult,
		Logger:    log,
	})

	// 7. Probe.
	progress.Start()
	startTime := time.Now()
	rs, runErr := prober.Run(ctx, candidates)
	progress.Stop()

	if resumeState != nil {
		if runErr != nil {
			if err := resumeState.Save(); err != nil {
				log.WithError(err).Warn("could not save resume state")
			} else {
				log.Infof("progress saved to %s, rerun with --resume-file to continue", opts.ResumeFile)
			}
		} else {
			_ = resumeState.Remove()
		}
	}

	// 8. Summary.
	available := append(previous, rs.Codes()...)
	stats.Codes = available
	stats.Available = len(available)
	stats.ResultsFile = results.Path()
	stats.Duration = time.Since(startTime)
	active := stats.Duration
	if pauser != nil {
		active -= pauser.PausedDuration()
	}
	if active > 0 {
		stats.ProbesPerSec = float64(stats.Total) / active.Seconds()
	}

	report := &Report{Stats: stats, Available: available}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Warnf("interrupted after %d of %d candidates", progress.Completed(), len(candidates))
		}
		_ = out.WriteFooter(stats)
		return report, runErr
	}
	if writeErr != nil {
		return report, writeErr
	}
	log.Info("check completed")
	return report, out.WriteFooter(stats)
}

func loadRotator(path string, log logrus.FieldLogger) *rotator.Rotator {
	rot, err := rotator.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("no proxy file found, using direct connection")
	case err != nil:
		log.WithError(err).Warn("failed to load proxies, using direct connection")
	case rot.Len() == 0:
		if path != "" {
			log.Info("no valid proxies found, using direct connection")
		}
	default:
		log.Infof("loaded %d proxies", rot.Len())
		for _, u := range rot.Endpoints() {
			log.WithField("proxy", u.Redacted()).Debug("proxy in rotation")
		}
	}
	return rot
}

func createWriters(opts *config.Options) (output.Writer, error) {
	console, err := output.NewTextWriter("", opts.NoColor, opts.Quiet)
	if err != nil {
		return nil, err
	}
	if opts.ReportFile == "" {
		return console, nil
	}

	var report output.Writer
	switch strings.ToLower(opts.ReportFormat) {
	case "csv":
		report, err = output.NewCSVWriter(opts.ReportFile)
	case "text":
		report, err = output.NewTextWriter(opts.ReportFile, true, false)
	default:
		report, err = output.NewJSONWriter(opts.ReportFile)
	}
	if err != nil {
		return nil, err
	}
	return output.MultiWriter{console, report}, nil
}
