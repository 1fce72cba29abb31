// Package session holds the per-direction protocol state spec §3/§4.4
// describes: the sender's last-transmitted frame cache and the
// receiver's per-(callsign, tx_id) frame map and gap detection.
package session

import (
	"time"

	"github.com/freetvgo/freetvgo/internal/framer"
)

// QuietThreshold is how long the receiver waits, after last seeing sync,
// before concluding a burst train is done arriving and gaps can be
// reported (spec §4.4, "missed_frames_wait_time").
const QuietThreshold = 5 * time.Second

// StaleAfter resolves spec §9's noted pathological case: a peer that
// reboots and wraps tx_id back onto a value already used against us
// would otherwise never have its stale rx_frames cleared, since
// (callsign, tx_id) looks unchanged. A session that has received no
// frame for longer than this is treated as gone even if the next frame
// repeats the same tx_id.
const StaleAfter = 2 * time.Minute

// GapStatus is CheckMissedFrames's three-variant result, replacing the
// Python original's conflation of "still receiving" (falsy, non-list)
// and "no session yet" (None) with the list of missing frame ids
// (spec §9's suggested clean redesign).
type GapStatus int

const (
	// NoSession means no session has ever seen sync.
	NoSession GapStatus = iota
	// StillReceiving means sync was seen recently; too soon to call gaps.
	StillReceiving
	// Missing means the quiet threshold passed; CheckMissedFrames's []byte
	// result lists the missing frame ids (empty when none are missing).
	Missing
)

// Receiver is the receive-side per-station session: at most one active
// (callsign, tx_id) at a time.
type Receiver struct {
	quietThreshold time.Duration
	staleAfter     time.Duration

	callsign  [framer.CallsignBytes]byte
	hasSess   bool
	txID      byte
	numFrames *byte // nil until at least one frame is received for the current session
	frames    map[byte][]byte
	lastSync  time.Time
	sessionAt time.Time // when the current session last received a frame
}

// NewReceiver returns an empty receiver session using the spec's
// QuietThreshold/StaleAfter constants.
func NewReceiver() *Receiver {
	return NewReceiverWithTimings(QuietThreshold, StaleAfter)
}

// NewReceiverWithTimings is NewReceiver with overridable timings, for
// tests and for operators who want spec §9's staleness timeout tuned.
func NewReceiverWithTimings(quietThreshold, staleAfter time.Duration) *Receiver {
	return &Receiver{
		quietThreshold: quietThreshold,
		staleAfter:     staleAfter,
		frames:         make(map[byte][]byte),
	}
}

// OnFrame applies a received forward-mode frame to session state per
// spec §4.4 step 1-3: if (callsign, tx_id) differs from the stored
// session, or the stored session has received no frame for longer than
// staleAfter, rx_frames is cleared before the new frame is stored.
func (r *Receiver) OnFrame(now time.Time, f framer.Frame) {
	isNewSession := !r.hasSess || f.Callsign != r.callsign || f.TxID != r.txID
	isStale := r.hasSess && now.Sub(r.sessionAt) > r.staleAfter

	if isNewSession || isStale {
		r.frames = make(map[byte][]byte)
	}
	r.sessionAt = now

	r.frames[f.FrameID] = f.Payload
	r.callsign = f.Callsign
	r.txID = f.TxID
	numFrames := f.NumFrames
	r.numFrames = &numFrames
	r.hasSess = true
}

// OnSync updates last_rx_sync whenever the demodulator reports nonzero
// sync, independent of whether a frame completed (spec §4.4 step 4).
func (r *Receiver) OnSync(now time.Time) {
	r.lastSync = now
}

// Callsign returns the current session's peer callsign and whether a
// session exists at all.
func (r *Receiver) Callsign() ([framer.CallsignBytes]byte, bool) {
	return r.callsign, r.hasSess
}

// CheckMissedFrames implements spec §4.4's check_missed_frames.
func (r *Receiver) CheckMissedFrames(now time.Time) (GapStatus, []byte) {
	if r.lastSync.IsZero() || r.numFrames == nil {
		return NoSession, nil
	}
	if now.Sub(r.lastSync) <= r.quietThreshold {
		return StillReceiving, nil
	}

	var missing []byte
	for i := byte(0); i < *r.numFrames; i++ {
		if _, ok := r.frames[i]; !ok {
			missing = append(missing, i)
		}
		if i == 255 {
			break // numFrames is a byte; avoid wrapping past 255
		}
	}
	return Missing, missing
}

// TakePayload implements spec §4.4's take_payload: if every frame_id in
// [0, rx_num_frames) is present, it concatenates payloads in order,
// clears the session, and returns the buffer. Otherwise it returns
// (nil, false) and leaves the session untouched.
func (r *Receiver) TakePayload() ([]byte, bool) {
	if r.numFrames == nil {
		return nil, false
	}

	out := make([]byte, 0, int(*r.numFrames))
	for i := byte(0); i < *r.numFrames; i++ {
		payload, ok := r.frames[i]
		if !ok {
			return nil, false
		}
		out = append(out, payload...)
		if i == 255 {
			break
		}
	}

	r.numFrames = nil
	r.frames = make(map[byte][]byte)
	return out, true
}

// Sender is the send-side per-station session: the literal byte
// sequence most recently transmitted, rebuilt from scratch at the start
// of every Transmit call (spec §3).
type Sender struct {
	Frames      []framer.Frame
	TxID        byte
	LastARQPeer *[framer.CallsignBytes]byte // diagnostic only, per spec §9
}

// NewSender returns a fresh sender session with tx_id starting at 0.
func NewSender() *Sender {
	return &Sender{}
}

// SetFrames replaces the cached frame sequence for a new transmission.
func (s *Sender) SetFrames(frames []framer.Frame) {
	s.Frames = frames
}

// AdvanceTxID increments tx_id, wrapping 0 after 255 (spec §4.5.1 step 7).
func (s *Sender) AdvanceTxID() {
	if s.TxID == 255 {
		s.TxID = 0
		return
	}
	s.TxID++
}
