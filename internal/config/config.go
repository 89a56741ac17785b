package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for every environment variable read into Options.
const EnvPrefix = "VANITY"

// Options holds all configuration for a vanityprobe run.
type Options struct {
	// Target
	BaseURL        string `envconfig:"URL" default:"https://discord.com/api/v9/invites"`
	CandidatesFile string `envconfig:"CANDIDATES" default:"data/vanity.txt"`
	ProxiesFile    string `envconfig:"PROXIES" default:"config/PROXY_LIST.txt"`

	// Rate limit
	Workers          int           `envconfig:"WORKERS" default:"1"`
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"5s"`
	Delay            time.Duration `envconfig:"DELAY" default:"1s"`
	AdaptiveThrottle bool          `envconfig:"ADAPTIVE_THROTTLE"`

	// Classification: "strict" or "legacy"
	StatusPolicy string `envconfig:"STATUS_POLICY" default:"strict"`

	// Output
	OutputFile   string `envconfig:"OUTPUT" default:"data/available.txt"`
	ReportFile   string `envconfig:"REPORT"`
	ReportFormat string `envconfig:"FORMAT" default:"json"` // "json", "csv", "text"
	Quiet        bool   `envconfig:"QUIET"`
	NoColor      bool   `envconfig:"NO_COLOR"`
	NoProgress   bool   `envconfig:"NO_PROGRESS"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// HTTP
	Headers   map[string]string `ignored:"true"`
	UserAgent string            `envconfig:"USER_AGENT"`
	Insecure  bool              `envconfig:"INSECURE"`

	// Resume / hooks / metrics
	ResumeFile    string `envconfig:"RESUME_FILE"`
	OnAvailable   string `envconfig:"ON_AVAILABLE"`
	MetricsListen string `envconfig:"METRICS_ADDR"`
}

// Load reads an optional dotenv file into the process environment and maps
// the VANITY_* variables onto a fresh Options. A missing dotenv file is not
// an error; an explicitly named one that cannot be read is.
func Load(envFile string) (Options, error) {
	var opts Options

	explicit := envFile != ""
	if !explicit {
		envFile = os.Getenv(EnvPrefix + "_ENV_FILE")
		explicit = envFile != ""
	}
	if !explicit {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return opts, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &opts); err != nil {
		return opts, fmt.Errorf("reading environment: %w", err)
	}
	return opts, nil
}
