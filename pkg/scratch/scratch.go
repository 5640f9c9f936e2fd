// Package scratch hands out uniquely named temporary files that are
// removed together when the owning request is done.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var ERR_CANT_CREATE = errors.New("Can't create a temporary file")

type Scope struct {
	dir    string
	prefix string
	files  []string
	logger *slog.Logger
}

// dir is created when missing
func NewScope(dir string, logger *slog.Logger) (*Scope, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("Directory %s: %w: %w", dir, ERR_CANT_CREATE, err)
	}
	prefix := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	return &Scope{
		dir:    dir,
		prefix: prefix,
		logger: logger.With("scope", prefix),
	}, nil
}

// Timestamped prefix shared by every file of the scope
func (s *Scope) Prefix() string { return s.prefix }

// Reserves a path without creating the file
func (s *Scope) Path(name string) string {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s", s.prefix, name))
	s.files = append(s.files, path)
	return path
}

// Copies r into a new scoped file
func (s *Scope) Save(name string, r io.Reader) (string, error) {
	path := s.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", path, ERR_CANT_CREATE, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("Write %s: %w", path, err)
	}
	return path, f.Close()
}

// Removes every file of the scope. Files that were never created
// are skipped
func (s *Scope) Release() {
	for _, path := range s.files {
		err := os.Remove(path)
		switch {
		case err == nil:
			s.logger.Debug("Removed", "path", path)
		case errors.Is(err, os.ErrNotExist):
		default:
			s.logger.Warn("Can't remove temporary file", "path", path, "err", err)
		}
	}
	s.files = nil
}
