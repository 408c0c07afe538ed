package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uncil.toml")
	require.NoError(t, os.WriteFile(path, []byte("EntityLimit = 2000\nLogLevel = \"debug\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2000, cfg.EntityLimit)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 1000, cfg.RecursionLimit) // untouched by the file, stays at the default
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uncil.toml")
	require.NoError(t, os.WriteFile(path, []byte("Bogus = 1\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDumpRoundTripsThroughLoad(t *testing.T) {
	cfg := Default()
	cfg.SearchPath = []string{"lib", "vendor"}

	text, err := Dump(cfg)
	require.NoError(t, err)
	require.Contains(t, text, "EntityLimit")

	dir := t.TempDir()
	path := filepath.Join(dir, "uncil.toml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.SearchPath, loaded.SearchPath)
}
