package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VANITY_ENV_FILE", "")
	chdir(t, t.TempDir())

	opts, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Delay != time.Second {
		t.Errorf("Delay = %s, want 1s", opts.Delay)
	}
	if opts.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", opts.Timeout)
	}
	if opts.Workers != 1 {
		t.Errorf("Workers = %d, want 1", opts.Workers)
	}
	if opts.StatusPolicy != "strict" {
		t.Errorf("StatusPolicy = %q, want strict", opts.StatusPolicy)
	}
	if opts.BaseURL != "https://discord.com/api/v9/invites" {
		t.Errorf("BaseURL = %q", opts.BaseURL)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "VANITY_DELAY=250ms\nVANITY_OUTPUT=/tmp/out.txt\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set, and it
	// writes straight into the process environment.
	t.Cleanup(func() {
		os.Unsetenv("VANITY_DELAY")
		os.Unsetenv("VANITY_OUTPUT")
	})
	t.Setenv("VANITY_WORKERS", "3")

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts.Delay != 250*time.Millisecond {
		t.Errorf("Delay = %s, want 250ms", opts.Delay)
	}
	if opts.OutputFile != "/tmp/out.txt" {
		t.Errorf("OutputFile = %q", opts.OutputFile)
	}
	if opts.Workers != 3 {
		t.Errorf("Workers = %d, want 3", opts.Workers)
	}
}

func TestLoadMissingExplicitEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected error for missing explicit env file")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("VANITY_ENV_FILE", "")
	chdir(t, t.TempDir())
	t.Setenv("VANITY_DELAY", "soon")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid VANITY_DELAY")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
