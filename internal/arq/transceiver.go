// Package arq implements the ARQ modem engine: mode-switched
// transmit/receive over a shared audio pipe (Transceiver, spec §4.5.5),
// and the stop-and-wait ARQ state machine built on top of it
// (Engine, spec §4.5).
package arq

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/freetvgo/freetvgo/internal/audiering"
	"github.com/freetvgo/freetvgo/internal/modemcodec"
	"github.com/freetvgo/freetvgo/internal/ptt"
)

// Transceiver is the mode-switched audio/codec glue: the Go counterpart
// to the Python original's Modem class. It owns the two modem codec
// instances, the TX/RX audio rings, and the flags the audio callback and
// engine worker share (spec §5's "shared resources").
type Transceiver struct {
	forward modemcodec.Codec
	control modemcodec.Codec

	txRing *audiering.Ring
	rxRing *audiering.Ring

	mode           atomic.Int32 // holds a modemcodec.Mode
	isTransmitting atomic.Bool
	haltedTx       atomic.Bool
	txVolume       atomic.Int32 // fixed-point percent, 0-100

	ptt ptt.Controller

	log *log.Logger
}

// NewTransceiver builds a Transceiver around already-open codec
// instances for the two modes, and fresh TX/RX rings.
func NewTransceiver(forward, control modemcodec.Codec, ringCapacity int, logger *log.Logger) *Transceiver {
	if logger == nil {
		logger = log.Default()
	}
	t := &Transceiver{
		forward: forward,
		control: control,
		txRing:  audiering.New(ringCapacity),
		rxRing:  audiering.New(ringCapacity),
		ptt:     ptt.NullController{},
		log:     logger.With("component", "transceiver"),
	}
	t.mode.Store(int32(modemcodec.Forward))
	t.txVolume.Store(100)
	return t
}

// SetPTT attaches the controller that keys the transmitter around each
// burst (spec §4.5.5's shared resources: the transmit path must key the
// radio, not just the modem). Defaults to a no-op NullController, so a
// Transceiver built without calling SetPTT behaves exactly as before
// (VOX-keyed stations, tests).
func (t *Transceiver) SetPTT(ctrl ptt.Controller) {
	if ctrl == nil {
		ctrl = ptt.NullController{}
	}
	t.ptt = ctrl
}

// SetMode switches which codec tx()/rx() address (spec §4.5.5: "every
// sender/receiver operation begins by setting the mode it requires").
func (t *Transceiver) SetMode(mode modemcodec.Mode) {
	t.mode.Store(int32(mode))
}

// Mode returns the currently selected mode.
func (t *Transceiver) Mode() modemcodec.Mode {
	return modemcodec.Mode(t.mode.Load())
}

func (t *Transceiver) codecFor(mode modemcodec.Mode) modemcodec.Codec {
	switch mode {
	case modemcodec.Forward:
		return t.forward
	case modemcodec.Control:
		return t.control
	default:
		return nil
	}
}

// SetTxVolume sets the transmit volume as a 0-100 percent, applied to
// every subsequently modulated burst (spec §6.3 set_tx_volume).
func (t *Transceiver) SetTxVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	t.txVolume.Store(int32(percent))
}

// IsTransmitting reports whether the TX ring still has a burst draining.
func (t *Transceiver) IsTransmitting() bool {
	return t.isTransmitting.Load()
}

// consumeHalted reports and clears the halt flag the way spec §4.5.1 step 5
// requires: the send path checks it once after the drain wait.
func (t *Transceiver) consumeHalted() bool {
	return t.haltedTx.CompareAndSwap(true, false)
}

// HaltTx drains the TX ring immediately and marks the in-flight
// transmission as halted (spec §4.5.1 step 5, §5 "Cancellation").
func (t *Transceiver) HaltTx() {
	t.haltedTx.Store(true)
	t.txRing.Drain()
}

// Tx modulates frame under the current mode and pushes the resulting
// burst into the TX ring (spec §4.5's tx()). It marks is_transmitting
// true before pushing, matching the ordering in the Python original.
func (t *Transceiver) Tx(frame []byte) error {
	codec := t.codecFor(t.Mode())
	if codec == nil {
		return fmt.Errorf("arq: no codec for mode %v", t.Mode())
	}

	if !t.isTransmitting.Swap(true) {
		if err := t.ptt.PTTOn(); err != nil {
			t.log.Warn("ptt on failed", "err", err)
		}
	}

	samples, err := codec.ModulateBurst(frame)
	if err != nil {
		return fmt.Errorf("arq: modulate burst: %w", err)
	}

	applyVolume(samples, int(t.txVolume.Load()))

	if err := t.txRing.Push(samples); err != nil {
		t.log.Warn("tx ring overflow", "mode", t.Mode(), "err", err)
		return err
	}
	return nil
}

// Rx pops exactly Nin() samples from the RX ring, if that many are
// available, and demodulates them under the current mode (spec §4.5's
// rx()). It reports sync and, when a frame just completed, its payload.
func (t *Transceiver) Rx() (sync int, payload []byte, gotFrame bool) {
	codec := t.codecFor(t.Mode())
	if codec == nil {
		return 0, nil, false
	}

	nin := codec.Nin()
	if t.rxRing.Available() < nin {
		return 0, nil, false
	}

	samples := t.rxRing.Pop(nin)
	sync, payload, err := codec.Demodulate(samples)
	if err != nil {
		t.log.Debug("demodulate failure", "mode", t.Mode(), "err", err)
		return sync, nil, false
	}
	return sync, payload, len(payload) > 0
}

// ServiceCallback is the real-time audio callback's entry point (spec
// §5's "audio device callback (real-time thread)"). When not
// transmitting, it pushes captured input samples to the RX ring. When
// transmitting, it pops up to len(out) samples from the TX ring into
// out; once the ring has len(out) or fewer samples left it stops
// transmitting and emits silence for this period, same as the Python
// original's pa_callback (a final sub-period remainder, if any, is left
// unplayed — matching upstream rather than a bug this repo introduces).
//
// out is written in place and must be caller-owned (the PortAudio
// output buffer); ServiceCallback never allocates, so it's safe to call
// on every tick of the real-time audio thread.
func (t *Transceiver) ServiceCallback(in []int16, out []int16) {
	if !t.isTransmitting.Load() {
		if err := t.rxRing.Push(in); err != nil {
			t.log.Warn("rx ring overflow, dropping input", "err", err)
		}
		silence(out)
		return
	}

	if t.txRing.Available() > len(out) {
		t.txRing.PopInto(out)
		return
	}

	t.isTransmitting.Store(false)
	if err := t.ptt.PTTOff(); err != nil {
		t.log.Warn("ptt off failed", "err", err)
	}
	silence(out)
}

func silence(out []int16) {
	for i := range out {
		out[i] = 0
	}
}

// Close closes both codec instances.
func (t *Transceiver) Close() error {
	err1 := t.forward.Close()
	err2 := t.control.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func applyVolume(samples []int16, percent int) {
	if percent >= 100 {
		return
	}
	for i, s := range samples {
		samples[i] = int16(int(s) * percent / 100)
	}
}
