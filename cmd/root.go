package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maxvaer/vanityprobe/internal/classify"
	"github.com/maxvaer/vanityprobe/internal/config"
	"github.com/maxvaer/vanityprobe/internal/runner"
	"github.com/maxvaer/vanityprobe/pkg/version"
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "candidates", "proxies"}},
	{"RATE-LIMIT", []string{"workers", "timeout", "delay", "adaptive-throttle"}},
	{"CLASSIFICATION", []string{"status-policy"}},
	{"HTTP", []string{"header", "user-agent", "insecure"}},
	{"OUTPUT", []string{"output", "report", "format", "quiet", "no-color", "no-progress", "on-available"}},
	{"LOGGING", []string{"log-level", "log-format", "metrics-addr"}},
	{"CONFIGURATION", []string{"resume-file"}},
}

// envName returns the environment variable that sets the given flag.
func envName(flag string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// newRootCmd builds the root command. Flag defaults come from defaults, so
// values set through the environment or a .env file show up in --help and
// are overridden by explicit flags.
func newRootCmd(defaults config.Options, stderr io.Writer) *cobra.Command {
	opts := defaults
	var headers []string

	cmd := &cobra.Command{
		Use:     "vanityprobe [flags]",
		Short:   "Check vanity invite codes for availability",
		Version: version.Version,
		Long: `vanityprobe checks a list of vanity invite codes against the invite
lookup endpoint, one request per code, rotating through a pool of proxies.
Codes the endpoint does not know (HTTP 404) are saved as available.`,
		Example: `  vanityprobe
  vanityprobe -w data/vanity.txt -p config/PROXY_LIST.txt -o data/available.txt
  vanityprobe --delay 2s --timeout 10s
  vanityprobe --workers 4 --adaptive-throttle
  vanityprobe --report run.json --format json
  vanityprobe --resume-file run.state
  vanityprobe --on-available "notify-send {code}"`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			if parsed != nil {
				opts.Headers = parsed
			}
			return validate(&opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(&opts, stderr)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			_, err = runner.Run(ctx, &opts, log)
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.Flags()

	// Target
	f.StringVarP(&opts.BaseURL, "url", "u", defaults.BaseURL, "Invite lookup endpoint; each code is appended as a path segment")
	f.StringVarP(&opts.CandidatesFile, "candidates", "w", defaults.CandidatesFile, "Candidate codes, one per line")
	f.StringVarP(&opts.ProxiesFile, "proxies", "p", defaults.ProxiesFile, "Proxy list, one per line (host:port, host:port:user:pass, user:pass@host:port or URL)")

	// Rate limit
	f.IntVar(&opts.Workers, "workers", defaults.Workers, "Concurrent probes, capped at one per proxy")
	f.DurationVar(&opts.Timeout, "timeout", defaults.Timeout, "Per-request timeout")
	f.DurationVar(&opts.Delay, "delay", defaults.Delay, "Delay between probes")
	f.BoolVar(&opts.AdaptiveThrottle, "adaptive-throttle", defaults.AdaptiveThrottle, "Back off on 429/503 and repeated errors")

	// Classification
	f.StringVar(&opts.StatusPolicy, "status-policy", defaults.StatusPolicy, "Unexpected status codes: strict (error) or legacy (taken)")

	// HTTP
	f.StringSliceVarP(&headers, "header", "H", nil, "Custom headers (Key: Value)")
	f.StringVar(&opts.UserAgent, "user-agent", defaults.UserAgent, "Custom User-Agent string")
	f.BoolVar(&opts.Insecure, "insecure", defaults.Insecure, "Skip TLS certificate verification")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", defaults.OutputFile, "File available codes are appended to (truncated each run)")
	f.StringVar(&opts.ReportFile, "report", defaults.ReportFile, "Write a report of every probe to this file")
	f.StringVar(&opts.ReportFormat, "format", defaults.ReportFormat, "Report format: json, csv, text")
	f.BoolVarP(&opts.Quiet, "quiet", "q", defaults.Quiet, "Only print available codes")
	f.BoolVar(&opts.NoColor, "no-color", defaults.NoColor, "Disable colored output")
	f.BoolVar(&opts.NoProgress, "no-progress", defaults.NoProgress, "Disable the progress line and pause toggle")
	f.StringVar(&opts.OnAvailable, "on-available", defaults.OnAvailable, "Shell command to run for each available code (receives JSON on stdin)")

	// Logging
	f.StringVar(&opts.LogLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	f.StringVar(&opts.LogFormat, "log-format", defaults.LogFormat, "Log format: text, json")
	f.StringVar(&opts.MetricsListen, "metrics-addr", defaults.MetricsListen, "Serve Prometheus metrics on this address (e.g. :9090)")

	// Resume
	f.StringVar(&opts.ResumeFile, "resume-file", defaults.ResumeFile, "File to save/load progress for resume")

	// Custom help: categorized flags like httpx.
	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintf(w, "\nEvery flag except --header can also be set in the environment or a .env file\n")
		fmt.Fprintf(w, "as %s_<FLAG>, upper-cased with dashes as underscores (e.g. %s).\n\n", config.EnvPrefix, envName("status-policy"))
	})

	return cmd
}

// Execute runs the root command.
func Execute() {
	defaults, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(defaults, os.Stderr).Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func validate(opts *config.Options) error {
	if opts.BaseURL == "" {
		return fmt.Errorf("--url must not be empty")
	}
	if !strings.HasPrefix(opts.BaseURL, "http://") && !strings.HasPrefix(opts.BaseURL, "https://") {
		opts.BaseURL = "https://" + opts.BaseURL
	}
	if opts.OutputFile == "" {
		return fmt.Errorf("--output must not be empty")
	}
	if opts.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	if opts.Delay < 0 {
		return fmt.Errorf("--delay must not be negative")
	}
	if _, err := classify.ParsePolicy(opts.StatusPolicy); err != nil {
		return err
	}
	switch strings.ToLower(opts.ReportFormat) {
	case "json", "csv", "text":
	default:
		return fmt.Errorf("--format must be one of: json, csv, text")
	}
	switch opts.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("--log-format must be one of: text, json")
	}
	return nil
}

func newLogger(opts *config.Options, w io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	if opts.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: opts.NoColor})
	}
	if err := l.Level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", opts.LogLevel, err)
	}
	return l, nil
}

// parseHeaders turns "Key: Value" strings into a header map.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
		}
		headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return headers, nil
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
                     _ __                        __
  _   ______ _____  (_) /___  ______  _________  / /_  ___
 | | / / __ '/ __ \/ / __/ / / / __ \/ ___/ __ \/ __ \/ _ \
 | |/ / /_/ / / / / / /_/ /_/ / /_/ / /  / /_/ / /_/ /  __/
 |___/\__,_/_/ /_/_/\__/\__, / .___/_/   \____/_.___/\___/   %s
                       /____/_/

`, ver)
}
