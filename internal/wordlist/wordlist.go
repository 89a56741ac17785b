package wordlist

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoCandidates is returned when a list contains no usable entries.
var ErrNoCandidates = errors.New("no candidates found")

// Load reads the candidate list at path. Lines are trimmed, blank lines and
// '#' comments are skipped, and repeated entries keep their first position.
// A list with no usable entries yields ErrNoCandidates.
func Load(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("candidate list path is empty: %w", ErrNoCandidates)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidate list %s: %w", path, err)
	}

	result := Parse(string(data))
	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCandidates)
	}
	return result, nil
}

// Parse splits raw newline-delimited text into de-duplicated entries.
func Parse(raw string) []string {
	lines := strings.Split(raw, "\n")
	seen := make(map[string]struct{}, len(lines))
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			result = append(result, line)
		}
	}
	return result
}
