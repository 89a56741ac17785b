package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ResultFile is the newline-delimited file of available codes. Every Append
// is flushed to disk before it returns so partial progress survives a crash.
type ResultFile struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// OpenResultFile opens path for appending, creating parent directories.
// With truncate set any previous contents are discarded.
func OpenResultFile(path string, truncate bool) (*ResultFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	return &ResultFile{f: f, path: path}, nil
}

// Append writes one code as a full line and syncs it.
func (r *ResultFile) Append(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.f.WriteString(code + "\n"); err != nil {
		return err
	}
	return r.f.Sync()
}

// Path returns the file location.
func (r *ResultFile) Path() string { return r.path }

func (r *ResultFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
