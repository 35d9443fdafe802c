package config

import "sort"

var Presets = map[string]*Config{
	"tiny":     {N: 4, Tolerance: DefaultTolerance, Backend: "serial"},
	"boundary": {N: 2, Tolerance: DefaultTolerance, Backend: "serial"},
	"small":    {N: 64, Tolerance: DefaultTolerance, Backend: "serial"},
	"default":  {N: DefaultN, Tolerance: DefaultTolerance, Backend: DefaultBackend, MinChunk: DefaultMinChunk},
	"large":    {N: 65536, Tolerance: DefaultTolerance, Backend: DefaultBackend, MinChunk: DefaultMinChunk},
}

// GetPreset returns a copy of the named preset with the remaining fields
// filled from the defaults, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.N = p.N
	cfg.Tolerance = p.Tolerance
	cfg.Backend = p.Backend
	cfg.MinChunk = p.MinChunk
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
