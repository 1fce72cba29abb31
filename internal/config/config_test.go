package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTimingsMatchSpecConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 15*time.Second, cfg.ArqWaitTime())
	assert.Equal(t, 7*time.Second, cfg.RetransmitWaitTime())
	assert.Equal(t, 5*time.Second, cfg.QuietThreshold())
}

func TestParseFlagsOverridesDefaults(t *testing.T) {
	cfg, err := ParseFlags(Default(), []string{"--callsign", "KO4VMI", "--ptt-backend", "gpio"})
	require.NoError(t, err)
	assert.Equal(t, "KO4VMI", cfg.Callsign)
	assert.Equal(t, "gpio", cfg.PTTBackend)
}

func TestParseFlagsRejectsOverlongCallsign(t *testing.T) {
	_, err := ParseFlags(Default(), []string{"--callsign", "WAYTOOLONGCALLSIGN"})
	assert.Error(t, err)
}

func TestLoadFileMergesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "freetvd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("callsign: N0CALL\narq_wait_time_ms: 1000\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", cfg.Callsign)
	assert.Equal(t, 1*time.Second, cfg.ArqWaitTime())
	assert.Equal(t, "null", cfg.PTTBackend) // untouched defaults survive the merge
}

func TestParseFlagsConfigFlagLoadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "freetvd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("callsign: N0CALL\n"), 0o644))

	cfg, err := ParseFlags(Default(), []string{"--config", path, "--ptt-backend", "hamlib"})
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", cfg.Callsign)
	assert.Equal(t, "hamlib", cfg.PTTBackend)
}
