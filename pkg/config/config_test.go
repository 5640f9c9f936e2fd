package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestSanity(t *testing.T) {
	cfg, err := Unmarshal("../../cfg/config.default.toml")
	if err != nil {
		t.Fatalf("Can't unmarshal, err: %s", err)
	}
	pretty, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Can't marshal, err: %s", err)
	}
	t.Logf("Config: %s\n", string(pretty))
	if cfg.Reid.InactiveTimeout != 300 || cfg.Upstream.ActivationThreshold != 0.15 {
		t.Fatalf("Unexpected tracking defaults: %+v %+v", cfg.Reid, cfg.Upstream)
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.toml")
	err := CreateDefault(path)
	if err != nil {
		t.Fatalf("Can't create empty config: %s", err)
	}
	cfg, err := Unmarshal(path)
	if err != nil {
		t.Fatalf("Can't read back the default config: %s", err)
	}
	if cfg.Webserver.Port != Default().Webserver.Port {
		t.Fatalf("Port %d != %d", cfg.Webserver.Port, Default().Webserver.Port)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	os.WriteFile(path, []byte("[reid]\nmax_distance = 150.0\n"), 0o644)
	cfg, err := Unmarshal(path)
	if err != nil {
		t.Fatalf("Can't unmarshal: %s", err)
	}
	if cfg.Reid.MaxDistance != 150 {
		t.Fatalf("Max distance not applied: %v", cfg.Reid.MaxDistance)
	}
	if cfg.Reid.FeatureBankSize != 100 || cfg.Ball.TrailLength != 50 {
		t.Fatalf("Defaults lost: %+v %+v", cfg.Reid, cfg.Ball)
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ROBOFLOW_API_KEY", "rf")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	path := filepath.Join(t.TempDir(), "c.toml")
	os.WriteFile(path, nil, 0o644)
	cfg, err := Unmarshal(path)
	if err != nil {
		t.Fatalf("Can't unmarshal: %s", err)
	}
	if cfg.Webserver.Port != 8080 || cfg.Detector.ApiKey != "rf" || cfg.Storage.URL != "https://example.supabase.co" {
		t.Fatalf("Environment not applied: %+v %+v %+v", cfg.Webserver, cfg.Detector, cfg.Storage)
	}

	t.Setenv("PORT", "eighty")
	if _, err := Unmarshal(path); err == nil {
		t.Fatalf("Bad port accepted")
	}
}

func TestBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o644)
	if _, err := Unmarshal(path); err == nil {
		t.Fatalf("Bad logging level accepted")
	}
}

func TestBadLiveQuality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	os.WriteFile(path, []byte("[video]\nlive_quality = 150\n"), 0o644)
	if _, err := Unmarshal(path); !errors.Is(err, ERR_BAD_VALUE) {
		t.Fatalf("Expected ERR_BAD_VALUE, got %v", err)
	}
}
