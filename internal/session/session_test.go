package session

import (
	"testing"
	"time"

	"github.com/freetvgo/freetvgo/internal/framer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cs(s string) [framer.CallsignBytes]byte {
	var c [framer.CallsignBytes]byte
	copy(c[:], s)
	return c
}

func frame(callsign [framer.CallsignBytes]byte, txID, id, num byte, payload string) framer.Frame {
	p := make([]byte, len(payload))
	copy(p, payload)
	return framer.Frame{Callsign: callsign, TxID: txID, FrameID: id, NumFrames: num, Payload: p}
}

func TestSingleFrameRoundTrip(t *testing.T) {
	r := NewReceiver()
	now := time.Now()

	r.OnSync(now)
	r.OnFrame(now, frame(cs("KO4VMI"), 0, 0, 1, "hello"))

	payload, ok := r.TakePayload()
	require.True(t, ok)
	assert.Equal(t, "hello", string(payload))

	// Session cleared after delivery.
	_, ok = r.TakePayload()
	assert.False(t, ok)
}

func TestCheckMissedFramesNoSession(t *testing.T) {
	r := NewReceiver()
	status, missing := r.CheckMissedFrames(time.Now())
	assert.Equal(t, NoSession, status)
	assert.Nil(t, missing)
}

func TestCheckMissedFramesStillReceiving(t *testing.T) {
	r := NewReceiver()
	now := time.Now()
	r.OnSync(now)
	r.OnFrame(now, frame(cs("KO4VMI"), 0, 0, 4, "a"))

	status, _ := r.CheckMissedFrames(now.Add(1 * time.Second))
	assert.Equal(t, StillReceiving, status)
}

func TestCheckMissedFramesReportsGap(t *testing.T) {
	r := NewReceiver()
	now := time.Now()
	r.OnSync(now)
	r.OnFrame(now, frame(cs("KO4VMI"), 0, 0, 4, "a"))
	r.OnFrame(now, frame(cs("KO4VMI"), 0, 1, 4, "b"))
	r.OnFrame(now, frame(cs("KO4VMI"), 0, 3, 4, "d"))

	status, missing := r.CheckMissedFrames(now.Add(QuietThreshold + time.Second))
	assert.Equal(t, Missing, status)
	assert.Equal(t, []byte{2}, missing)
}

func TestSessionIsolationOnNewTxID(t *testing.T) {
	r := NewReceiver()
	now := time.Now()

	r.OnSync(now)
	r.OnFrame(now, frame(cs("KO4VMI"), 5, 0, 2, "aa"))
	r.OnFrame(now, frame(cs("KO4VMI"), 6, 0, 1, "bb")) // new tx_id: discards prior partial session

	payload, ok := r.TakePayload()
	require.True(t, ok)
	assert.Equal(t, "bb", string(payload))
}

func TestStaleSessionClearedOnTxIDWrapCollision(t *testing.T) {
	r := NewReceiver()
	t0 := time.Now()

	r.OnSync(t0)
	r.OnFrame(t0, frame(cs("KO4VMI"), 255, 0, 2, "aa")) // only frame 0 of 2 ever arrives

	later := t0.Add(StaleAfter + time.Second)
	r.OnSync(later)
	// Same callsign, same tx_id (wrapped back to 255) after a long gap.
	r.OnFrame(later, frame(cs("KO4VMI"), 255, 0, 1, "zz"))

	payload, ok := r.TakePayload()
	require.True(t, ok)
	assert.Equal(t, "zz", string(payload))
}

func TestSenderTxIDWraps(t *testing.T) {
	s := NewSender()
	s.TxID = 255
	s.AdvanceTxID()
	assert.Equal(t, byte(0), s.TxID)
}
