// Package config loads a Runtime's tunables (entity limit, default
// recursion limit, module search path, instruction gas budget) from a
// TOML file, in exactly the style the teacher's cmd/gprobe/config.go
// uses: a toml.Config with field-name-preserving Norm/FieldToKey hooks
// and a MissingField hook that turns unknown keys into errors instead
// of silently ignoring typos.
package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// tomlSettings mirrors the teacher's settings verbatim: Go struct field
// names double as TOML keys, and an unrecognized key is a load error
// rather than a silently dropped setting.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Config is the full set of tunables a Runtime accepts at startup.
type Config struct {
	EntityLimit    int      // Wake() triggers a GC pass at this live-entity count
	RecursionLimit int      // default call-depth bound for new views
	SearchPath     []string // require() source search path, in order
	GasPerCall     int64    // instruction budget setting; Runtime does not apply it to any VM, whose Gas stays 0 (unmetered)
	LogLevel       string   // "debug", "info", "warn", "error", or "crit"
}

// Default returns the tunables a Runtime uses when no config file is
// supplied.
func Default() Config {
	return Config{
		EntityLimit:    800,
		RecursionLimit: 1000,
		LogLevel:       "info",
	}
}

// Load reads and decodes a TOML config file, starting from Default()
// so a file only needs to override the fields it cares about.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			return cfg, fmt.Errorf("%s, %w", path, err)
		}
		return cfg, err
	}
	return cfg, nil
}

// Dump renders cfg back to TOML text, the way `dumpconfig` lets an
// embedder inspect the tunables actually in effect after defaults and
// any file have been applied.
func Dump(cfg Config) (string, error) {
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
