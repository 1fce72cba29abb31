package arq

import (
	"errors"

	"github.com/freetvgo/freetvgo/internal/framer"
)

// Control-mode frames (spec §3 "Frame (control mode)") are 14 bytes:
// sender callsign (10) || retransmit_id (1) || reserved (3, zero-filled).
// There's no frame-type byte: a station can't confuse a control-mode
// reception with forward-mode because the two modes run through
// distinct demodulator instances (spec §3).
const (
	controlFrameBytes  = 14
	retransmitIDOffset = framer.CallsignBytes
)

var errBadControlFrame = errors.New("arq: control frame is not controlFrameBytes long")

type retransmitRequest struct {
	Callsign     [framer.CallsignBytes]byte
	RetransmitID byte
}

func buildRetransmitRequest(callsign [framer.CallsignBytes]byte, frameID byte) []byte {
	out := make([]byte, controlFrameBytes)
	copy(out, callsign[:])
	out[retransmitIDOffset] = frameID
	return out
}

func parseRetransmitRequest(raw []byte) (retransmitRequest, error) {
	if len(raw) != controlFrameBytes {
		return retransmitRequest{}, errBadControlFrame
	}
	var r retransmitRequest
	copy(r.Callsign[:], raw[:framer.CallsignBytes])
	r.RetransmitID = raw[retransmitIDOffset]
	return r, nil
}

// testFramePayload builds the "TEST" control frame spec §4.6 step 1
// transmits: callsign || "TEST", zero-padded to controlFrameBytes.
func testFramePayload(callsign [framer.CallsignBytes]byte) []byte {
	out := make([]byte, controlFrameBytes)
	copy(out, callsign[:])
	copy(out[framer.CallsignBytes:], "TEST")
	return out
}
