package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// State records which candidates of a list were already probed, so an
// interrupted run can continue where it stopped.
type State struct {
	CandidatesFile string   `json:"candidates_file"`
	Total          int      `json:"total"`
	Completed      []string `json:"completed"`
	Available      []string `json:"available"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates an empty state that will be saved to path.
func New(path, candidatesFile string, total int) *State {
	return &State{
		CandidatesFile: candidatesFile,
		Total:          total,
		path:           path,
		done:           make(map[string]struct{}),
	}
}

// Load reads a saved state. It returns nil, nil if path does not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}
	s.path = path
	s.done = make(map[string]struct{}, len(s.Completed))
	for _, c := range s.Completed {
		s.done[c] = struct{}{}
	}
	return &s, nil
}

// Matches reports whether the state was recorded for candidatesFile.
func (s *State) Matches(candidatesFile string) bool {
	return sameFile(s.CandidatesFile, candidatesFile)
}

// MarkCompleted records a probed candidate and whether it was available.
func (s *State) MarkCompleted(candidate string, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[candidate]; ok {
		return
	}
	s.done[candidate] = struct{}{}
	s.Completed = append(s.Completed, candidate)
	if available {
		s.Available = append(s.Available, candidate)
	}
}

// PreviouslyAvailable returns the available codes found by earlier runs.
func (s *State) PreviouslyAvailable() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Available))
	copy(out, s.Available)
	return out
}

// FilterRemaining returns the candidates not yet completed, in order.
func (s *State) FilterRemaining(candidates []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []string
	for _, c := range candidates {
		if _, ok := s.done[c]; !ok {
			remaining = append(remaining, c)
		}
	}
	return remaining
}

// Save writes the state through a temporary file and rename, so a crash
// mid-save never leaves a truncated state behind.
func (s *State) Save() error {
	s.mu.Lock()
	data, err := json.Marshal(s)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("saving resume state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("saving resume state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("saving resume state: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Remove deletes the state file after a successful run.
func (s *State) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
