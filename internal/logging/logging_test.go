package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevelKnownNames(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, log.InfoLevel, ParseLevel("unknown"))
}

func TestNewWithoutFilePatternLogsToStderr(t *testing.T) {
	logger, closer, err := New("", log.InfoLevel)
	require.NoError(t, err)
	defer closer.Close()
	require.NotNil(t, logger)
}

func TestNewWithFilePatternCreatesFile(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "freetvd.log")

	logger, closer, err := New(pattern, log.InfoLevel)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hello")

	_, err = os.Stat(pattern)
	assert.NoError(t, err)
}
