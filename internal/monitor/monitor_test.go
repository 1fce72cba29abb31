package monitor

import (
	"testing"

	"github.com/freetvgo/freetvgo/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "TX_ACTIVE true", formatEvent(engine.Event{Kind: engine.EventTransmitActive, Active: true}))
	assert.Equal(t, "RX_CALLSIGN KO4VMI", formatEvent(engine.Event{Kind: engine.EventRxCallsign, Callsign: "KO4VMI"}))
	assert.Equal(t, "RX_PAYLOAD 3 bytes", formatEvent(engine.Event{Kind: engine.EventRxPayload, Payload: []byte{1, 2, 3}}))
	assert.Equal(t, "RETRANSMIT_FAILED", formatEvent(engine.Event{Kind: engine.EventRetransmitFailed}))
}

func TestOpenAndClose(t *testing.T) {
	m, err := Open(nil)
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	assert.NotEmpty(t, m.SlaveName())
	assert.NoError(t, m.Close())
}
