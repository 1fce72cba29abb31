package ptt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToNull(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, NullController{}, c)
	assert.NoError(t, c.PTTOn())
	assert.NoError(t, c.PTTOff())
	assert.NoError(t, c.Close())
}

func TestNewExplicitNull(t *testing.T) {
	c, err := New(Config{Backend: BackendNull})
	require.NoError(t, err)
	assert.IsType(t, NullController{}, c)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewSerialRequiresDevice(t *testing.T) {
	_, err := New(Config{Backend: BackendSerial})
	assert.Error(t, err)
}

func TestNewGPIORequiresChip(t *testing.T) {
	_, err := New(Config{Backend: BackendGPIO})
	assert.Error(t, err)
}

func TestNewHamlibRequiresDevice(t *testing.T) {
	_, err := New(Config{Backend: BackendHamlib})
	assert.Error(t, err)
}
