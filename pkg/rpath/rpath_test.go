package rpath

import (
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	base := Base(filepath.FromSlash("/opt/pitchtrack/bin"))
	cases := map[string]string{
		"../cfg/config.toml": filepath.FromSlash("/opt/pitchtrack/cfg/config.toml"),
		"temp":               filepath.FromSlash("/opt/pitchtrack/bin/temp"),
		"":                   "",
	}
	for in, want := range cases {
		if got := base.Resolve(filepath.FromSlash(in)); got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
	abs, _ := filepath.Abs("x")
	if got := base.Resolve(abs); got != abs {
		t.Fatalf("Absolute path changed: %q -> %q", abs, got)
	}
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	if err != nil {
		t.Fatalf("Can't find executable dir: %s", err)
	}
	if !filepath.IsAbs(string(dir)) {
		t.Fatalf("Not absolute: %q", dir)
	}
}
