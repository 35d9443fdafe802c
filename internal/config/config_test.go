package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/cgsolve/internal/cg"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.N != 1024 {
		t.Errorf("expected n 1024, got %d", cfg.N)
	}
	if cfg.Tolerance != 1e-10 {
		t.Errorf("expected tolerance 1e-10, got %g", cfg.Tolerance)
	}
	if cfg.MaxIterations != 0 {
		t.Errorf("expected max_iterations 0, got %d", cfg.MaxIterations)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("n: 4096\nstrict: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.N != 4096 {
		t.Errorf("expected n 4096, got %d", cfg.N)
	}
	if !cfg.Strict {
		t.Error("expected strict to be set")
	}
	if cfg.Tolerance != DefaultTolerance || cfg.Backend != DefaultBackend {
		t.Errorf("omitted keys should keep defaults, got tol=%g backend=%s", cfg.Tolerance, cfg.Backend)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("n: [1, 2"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := DefaultConfig()
	cfg.N = 77
	cfg.Workers = 3
	cfg.Seed = 12345

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", cfg, loaded)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero n", func(c *Config) { c.N = 0 }},
		{"negative n", func(c *Config) { c.N = -3 }},
		{"pattern", func(c *Config) { c.Pattern = 1 }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1e-3 }},
		{"negative cap", func(c *Config) { c.MaxIterations = -1 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"negative chunk", func(c *Config) { c.MinChunk = -1 }},
		{"backend", func(c *Config) { c.Backend = "cuda" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
}

func TestSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tolerance = 1e-6
	cfg.MaxIterations = 50

	s := cfg.Settings()
	if s.Tolerance != 1e-6 || s.MaxIterations != 50 {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Degeneracy != cg.Propagate {
		t.Errorf("expected propagate, got %s", s.Degeneracy)
	}

	cfg.Strict = true
	if cfg.Settings().Degeneracy != cg.Strict {
		t.Error("expected strict policy")
	}
}

func TestNewBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	b, err := cfg.NewBackend()
	if err != nil {
		t.Fatal(err)
	}
	if b.Name() != "cpu" || b.Workers() != 2 {
		t.Errorf("expected cpu with 2 workers, got %s with %d", b.Name(), b.Workers())
	}

	cfg.Workers = 0
	if cfg.EffectiveWorkers() < 1 {
		t.Error("effective workers should be at least one")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("tiny")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.N != 4 {
		t.Errorf("expected n 4, got %d", cfg.N)
	}
	if cfg.DataDir != DefaultDataDir {
		t.Errorf("preset should inherit data dir, got %q", cfg.DataDir)
	}

	cfg.N = 99
	if Presets["tiny"].N != 4 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	want := []string{"boundary", "default", "large", "small", "tiny"}
	if got := ListPresets(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	for _, name := range ListPresets() {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
