package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink delivers a finished export.
type Sink interface {
	Deliver(filename string, content []byte) (string, error)
}

// FileSink writes exports into Dir and returns the written path.
type FileSink struct {
	Dir string
}

// Deliver writes content to Dir/filename, creating Dir when needed.
func (s FileSink) Deliver(filename string, content []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write export %s: %w", path, err)
	}
	return path, nil
}
