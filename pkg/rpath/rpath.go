// Package rpath anchors relative paths from the config file to the
// directory the binary lives in, so the service can start from anywhere.
package rpath

import (
	"fmt"
	"os"
	"path/filepath"
)

type Base string

func ExecutableDir() (Base, error) {
	exe_path, err := os.Executable()
	if err != nil {
		return "",
			fmt.Errorf("Can't find executable's location. Error: %w", err)
	}
	exe_path, err = filepath.EvalSymlinks(exe_path)
	if err != nil {
		return "", fmt.Errorf("Can't resolve executable's location. Error: %w", err)
	}
	return Base(filepath.Dir(exe_path)), nil
}

// Absolute paths pass through, relative ones are joined to base
func (b Base) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(string(b), path)
}
