package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cgsolve/internal/cg"
	"github.com/san-kum/cgsolve/internal/compute"
)

const (
	DefaultN         = 1024
	DefaultBackend   = "cpu"
	DefaultMinChunk  = compute.DefaultMinChunk
	DefaultDataDir   = ".cgsolve"
	DefaultTolerance = cg.DefaultTolerance
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	N             int     `yaml:"n"`
	Pattern       int     `yaml:"pattern"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Backend       string  `yaml:"backend"`
	Workers       int     `yaml:"workers"`
	MinChunk      int     `yaml:"min_chunk"`
	Seed          int64   `yaml:"seed"`
	Strict        bool    `yaml:"strict"`
	DataDir       string  `yaml:"data_dir"`
	ResultsFile   string  `yaml:"results_file,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		N:         DefaultN,
		Tolerance: DefaultTolerance,
		Backend:   DefaultBackend,
		MinChunk:  DefaultMinChunk,
		DataDir:   DefaultDataDir,
	}
}

// Load decodes a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.N <= 0:
		return fmt.Errorf("%w: n must be positive, got %d", ErrInvalidConfig, c.N)
	case c.Pattern != 0:
		return fmt.Errorf("%w: unsupported pattern %d", ErrInvalidConfig, c.Pattern)
	case c.Tolerance < 0 || c.Tolerance != c.Tolerance:
		return fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrInvalidConfig, c.Tolerance)
	case c.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations must be non-negative, got %d", ErrInvalidConfig, c.MaxIterations)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	case c.MinChunk < 0:
		return fmt.Errorf("%w: min_chunk must be non-negative, got %d", ErrInvalidConfig, c.MinChunk)
	}
	for _, name := range compute.BackendNames() {
		if name == c.Backend {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
}

func (c *Config) Settings() cg.Settings {
	s := cg.DefaultSettings()
	s.Tolerance = c.Tolerance
	s.MaxIterations = c.MaxIterations
	if c.Strict {
		s.Degeneracy = cg.Strict
	}
	return s
}

// EffectiveWorkers resolves a zero worker count to the number of CPUs.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c *Config) NewBackend() (compute.Backend, error) {
	return compute.NewBackend(c.Backend, c.EffectiveWorkers(), c.MinChunk)
}
