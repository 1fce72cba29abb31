package engine

import (
	"testing"
	"time"

	"github.com/freetvgo/freetvgo/internal/arq"
	"github.com/freetvgo/freetvgo/internal/framer"
	"github.com/freetvgo/freetvgo/internal/modemcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCallsign(s string) [framer.CallsignBytes]byte {
	var c [framer.CallsignBytes]byte
	copy(c[:], s)
	return c
}

func newTestArqEngine(t *testing.T, callsign [framer.CallsignBytes]byte) *arq.Engine {
	t.Helper()
	forward := modemcodec.NewLoopbackCodec(modemcodec.Forward)
	control := modemcodec.NewLoopbackCodec(modemcodec.Control)
	tc := arq.NewTransceiver(forward, control, 1<<20, nil)

	cfg := arq.DefaultConfig(callsign)
	cfg.ArqWaitTime = 30 * time.Millisecond
	cfg.RetransmitWaitTime = 30 * time.Millisecond
	cfg.PollInterval = 2 * time.Millisecond
	cfg.QuietThreshold = 30 * time.Millisecond

	return arq.NewEngine(tc, cfg, nil)
}

// selfPump drives a Transceiver's ServiceCallback continuously, standing
// in for the real-time audio thread the engine loop's worker goroutine
// assumes is always running alongside it.
func selfPump(tc *arq.Transceiver, stop <-chan struct{}) {
	const chunk = 32
	in := make([]int16, chunk)
	out := make([]int16, chunk)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			tc.ServiceCallback(in, out)
		}
	}
}

func TestTestFrameAndPayloadBothEmitActiveEvents(t *testing.T) {
	a := newTestArqEngine(t, testCallsign("KO4VMI"))
	e := New(a, nil)

	stop := make(chan struct{})
	defer close(stop)
	go selfPump(a.Transceiver(), stop)

	go e.Run()
	defer e.Stop()

	e.SubmitPayload([]byte("hello"))
	e.SubmitTestFrame()

	var sawActive int
	deadline := time.After(2 * time.Second)
	for sawActive < 4 { // test frame: active true/false, payload: active true/false
		select {
		case ev := <-e.Events():
			if ev.Kind == EventTransmitActive {
				sawActive++
			}
		case <-deadline:
			t.Fatal("timed out waiting for transmit-active events")
		}
	}
}

func TestReceiveTickEmitsPayloadEvent(t *testing.T) {
	aArq := newTestArqEngine(t, testCallsign("KO4VMI"))
	bArq := newTestArqEngine(t, testCallsign("N0CALL"))
	b := New(bArq, nil)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		const chunk = 32
		aToB := make([]int16, chunk)
		bToA := make([]int16, chunk)
		outA := make([]int16, chunk)
		outB := make([]int16, chunk)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				aArq.Transceiver().ServiceCallback(bToA, outA)
				bArq.Transceiver().ServiceCallback(aToB, outB)
				aToB, outA = outA, aToB
				bToA, outB = outB, bToA
			}
		}
	}()

	go b.Run()
	defer b.Stop()

	require.NoError(t, aArq.Transmit([]byte("hi")))

	var gotCallsign, gotPayload bool
	deadline := time.After(2 * time.Second)
	for !gotPayload {
		select {
		case ev := <-b.Events():
			switch ev.Kind {
			case EventRxCallsign:
				gotCallsign = true
				assert.Equal(t, "KO4VMI", ev.Callsign)
			case EventRxPayload:
				gotPayload = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for rx payload event")
		}
	}
	assert.True(t, gotCallsign)
}

func TestStopExitsLoopAndClosesTransceiver(t *testing.T) {
	a := newTestArqEngine(t, testCallsign("KO4VMI"))
	e := New(a, nil)

	stop := make(chan struct{})
	defer close(stop)
	go selfPump(a.Transceiver(), stop)

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	e.Stop()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("engine loop did not exit after Stop")
	}
}

func TestTrimCallsignStripsTrailingZeros(t *testing.T) {
	cs := testCallsign("N0CALL")
	assert.Equal(t, "N0CALL", trimCallsign(cs[:]))
}
