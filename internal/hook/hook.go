package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxvaer/vanityprobe/internal/scanner"
)

// Timeout bounds a single hook invocation.
const Timeout = 30 * time.Second

// payload is the JSON document sent to the hook command via stdin.
type payload struct {
	Code       string `json:"code"`
	URL        string `json:"url"`
	StatusCode int    `json:"status"`
	Egress     string `json:"egress,omitempty"`
	Index      int    `json:"index"`
}

// Runner executes a shell command for each available code.
type Runner struct {
	cmd string
	log logrus.FieldLogger
}

// NewRunner creates a hook runner. cmd may contain the placeholders {code},
// {url} and {status}.
func NewRunner(cmd string, log logrus.FieldLogger) *Runner {
	return &Runner{cmd: cmd, log: log}
}

// Expand substitutes result fields into the command template.
func (r *Runner) Expand(result *scanner.ProbeResult) string {
	return strings.NewReplacer(
		"{code}", result.Candidate,
		"{url}", result.URL,
		"{status}", strconv.Itoa(result.StatusCode),
	).Replace(r.cmd)
}

// Run executes the hook with the result as JSON on stdin. Failures are
// logged and never interrupt probing.
func (r *Runner) Run(ctx context.Context, result *scanner.ProbeResult) {
	data, err := json.Marshal(payload{
		Code:       result.Candidate,
		URL:        result.URL,
		StatusCode: result.StatusCode,
		Egress:     result.Egress,
		Index:      result.Index,
	})
	if err != nil {
		r.log.WithError(err).Error("hook: marshal payload")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.Expand(result))...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"code":   result.Candidate,
			"stderr": strings.TrimSpace(stderr.String()),
		}).Warn("hook failed")
		return
	}
	if s := strings.TrimSpace(string(out)); s != "" {
		r.log.WithField("code", result.Candidate).Infof("hook: %s", s)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
