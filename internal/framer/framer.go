// Package framer packs application bytes into fixed-size forward-mode
// frames carrying an ARQ header, and unpacks received frames back into
// their fields, per spec §4.3.
package framer

import (
	"errors"
	"fmt"
)

const (
	CallsignBytes = 10
	TxIDBytes     = 1
	FrameIDBytes  = 1
	NumFramesByte = 1

	HeaderBytes = CallsignBytes + TxIDBytes + FrameIDBytes + NumFramesByte // 13

	callsignOffset  = 0
	txIDOffset      = callsignOffset + CallsignBytes
	frameIDOffset   = txIDOffset + TxIDBytes
	numFramesOffset = frameIDOffset + FrameIDBytes
	payloadOffset   = numFramesOffset + NumFramesByte
)

// ErrPayloadTooLarge is returned by Pack when data needs more than 255
// frames to transmit, since num_frames must fit in a single byte.
var ErrPayloadTooLarge = errors.New("framer: payload needs more than 255 frames")

// ErrBadFrameSize is returned by Unpack when raw is too short to hold the
// header plus at least one payload byte. Longer frames are not checked
// against a fixed size; the caller (via the codec) guarantees that.
var ErrBadFrameSize = errors.New("framer: frame too short for header and payload")

// Frame is one unpacked 126-byte forward-mode record.
type Frame struct {
	Callsign  [CallsignBytes]byte
	TxID      byte
	FrameID   byte
	NumFrames byte
	Payload   []byte // Pack: forwardFrameBytes - HeaderBytes; Unpack: every byte after the header
}

// Pack splits data into frames for forwardFrameBytes-byte forward-mode
// frames carrying the given callsign/txID header. num_frames is computed
// once, before the loop, and is identical across every returned frame
// (spec §4.3's "frame-count idempotence" invariant).
//
// Empty data produces exactly one frame with an all-zero payload and
// NumFrames == 1, the implementer's choice spec §8 explicitly leaves
// open ("num_frames = 0 (or 1, per implementer choice — document it)").
// A present-but-empty frame with NumFrames == 1 lets a receiver's
// CheckMissedFrames treat "[0,1)" as the complete range instead of
// special-casing an empty range, and still tells "an empty image was
// sent" apart from "nothing was ever sent."
func Pack(data []byte, callsign [CallsignBytes]byte, txID byte, forwardFrameBytes int) ([]Frame, error) {
	payloadPerFrame := forwardFrameBytes - HeaderBytes
	if payloadPerFrame <= 0 {
		return nil, fmt.Errorf("framer: forwardFrameBytes %d too small for header", forwardFrameBytes)
	}

	numFrames := 1
	if len(data) > 0 {
		numFrames = (len(data) + payloadPerFrame - 1) / payloadPerFrame
	}
	if numFrames > 255 {
		return nil, ErrPayloadTooLarge
	}

	frames := make([]Frame, 0, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * payloadPerFrame
		end := start + payloadPerFrame
		if end > len(data) {
			end = len(data)
		}

		payload := make([]byte, payloadPerFrame)
		copy(payload, data[start:end])

		frames = append(frames, Frame{
			Callsign:  callsign,
			TxID:      txID,
			FrameID:   byte(i),
			NumFrames: byte(numFrames),
			Payload:   payload,
		})
	}
	return frames, nil
}

// PackBytes renders a Frame into its on-wire header||payload
// representation (without CRC; the modem codec appends and strips that).
func (f Frame) PackBytes() []byte {
	out := make([]byte, HeaderBytes+len(f.Payload))
	copy(out[callsignOffset:], f.Callsign[:])
	out[txIDOffset] = f.TxID
	out[frameIDOffset] = f.FrameID
	out[numFramesOffset] = f.NumFrames
	copy(out[payloadOffset:], f.Payload)
	return out
}

// Unpack splits a raw forward-mode frame (without CRC, as delivered by
// the modem codec) into its fields by the fixed offsets in spec §3.
func Unpack(raw []byte) (Frame, error) {
	if len(raw) <= HeaderBytes {
		return Frame{}, ErrBadFrameSize
	}

	var f Frame
	copy(f.Callsign[:], raw[callsignOffset:txIDOffset])
	f.TxID = raw[txIDOffset]
	f.FrameID = raw[frameIDOffset]
	f.NumFrames = raw[numFramesOffset]
	f.Payload = append([]byte(nil), raw[payloadOffset:]...)
	return f, nil
}
