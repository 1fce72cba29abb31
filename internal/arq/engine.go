package arq

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/freetvgo/freetvgo/internal/framer"
	"github.com/freetvgo/freetvgo/internal/modemcodec"
	"github.com/freetvgo/freetvgo/internal/session"
)

// Config carries the ARQ timing constants spec §4.5 names, all
// overridable so tests don't have to wait real seconds.
type Config struct {
	Callsign [framer.CallsignBytes]byte

	ArqWaitTime              time.Duration // spec's arq_wait_time, default 15s
	RetransmitWaitTime       time.Duration // spec's retransmit_wait_time, default 7s
	RetransmitRequestRetries int           // default 2
	MaxRetransmitRounds      int           // spec §9's bounded-recursion cap, default 8
	PollInterval             time.Duration // engine's idle sleep-poll interval, default 10ms
	ForwardFrameBytes        int           // default 126

	QuietThreshold time.Duration // receiver's missed_frames_wait_time, default 5s
	StaleAfter     time.Duration // receiver session staleness timeout, default 2m
}

// DefaultConfig returns the spec's literal constants for a given callsign.
func DefaultConfig(callsign [framer.CallsignBytes]byte) Config {
	return Config{
		Callsign:                 callsign,
		ArqWaitTime:              15 * time.Second,
		RetransmitWaitTime:       7 * time.Second,
		RetransmitRequestRetries: 2,
		MaxRetransmitRounds:      8,
		PollInterval:             10 * time.Millisecond,
		ForwardFrameBytes:        modemcodec.Forward.PayloadBytesPerFrame(),
		QuietThreshold:           session.QuietThreshold,
		StaleAfter:               session.StaleAfter,
	}
}

// RetransmitOutcome is the result of RequestRetransmit (spec §4.5.4).
type RetransmitOutcome int

const (
	// RetransmitNoOp means there was nothing to request (no session, or
	// still within the quiet window).
	RetransmitNoOp RetransmitOutcome = iota
	// RetransmitComplete means every requested frame was recovered.
	RetransmitComplete
	// RetransmitFailed means the retry budget was exhausted for some
	// frame; the caller should surface a RetransmitFailed event.
	RetransmitFailed
)

// Engine is the ARQ state machine coordinating send and receive around
// mode switches on top of a Transceiver (spec §4.5).
type Engine struct {
	t *Transceiver

	sender   *session.Sender
	receiver *session.Receiver

	cfg Config
	log *log.Logger
}

// NewEngine builds an ARQ Engine over an already-constructed Transceiver.
func NewEngine(t *Transceiver, cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		t:        t,
		sender:   session.NewSender(),
		receiver: session.NewReceiverWithTimings(cfg.QuietThreshold, cfg.StaleAfter),
		cfg:      cfg,
		log:      logger.With("component", "arq"),
	}
}

// Transceiver exposes the underlying mode-switched audio/codec glue, for
// the engine loop's callback wiring.
func (e *Engine) Transceiver() *Transceiver { return e.t }

// TxID returns the sender's current burst-train identifier.
func (e *Engine) TxID() byte { return e.sender.TxID }

// LastARQPeer returns the diagnostic-only peer callsign observed during
// the most recent ARQ wait (spec §9), if any.
func (e *Engine) LastARQPeer() (cs [framer.CallsignBytes]byte, ok bool) {
	if e.sender.LastARQPeer == nil {
		return cs, false
	}
	return *e.sender.LastARQPeer, true
}

// Transmit implements spec §4.5.1's send path.
func (e *Engine) Transmit(data []byte) error {
	frames, err := framer.Pack(data, e.cfg.Callsign, e.sender.TxID, e.cfg.ForwardFrameBytes)
	if err != nil {
		return fmt.Errorf("arq: transmit: %w", err)
	}
	e.sender.SetFrames(frames)

	e.t.SetMode(modemcodec.Forward)
	for _, f := range frames {
		if err := e.t.Tx(f.PackBytes()); err != nil {
			return fmt.Errorf("arq: transmit burst: %w", err)
		}
	}

	e.waitForTxDrain()

	if e.t.consumeHalted() {
		e.log.Info("transmission halted, skipping ARQ wait", "tx_id", e.sender.TxID)
		return nil
	}

	e.t.SetMode(modemcodec.Control)
	peer := e.waitForArq()
	if peer != nil {
		e.sender.LastARQPeer = peer
	}

	e.sender.AdvanceTxID()
	return nil
}

// TransmitTestFrame implements spec §4.6 step 1's test-frame command:
// callsign || "TEST" in control mode, not visible to a forward-mode
// receiver by design (spec §8 scenario 6).
func (e *Engine) TransmitTestFrame() error {
	e.t.SetMode(modemcodec.Control)
	if err := e.t.Tx(testFramePayload(e.cfg.Callsign)); err != nil {
		return fmt.Errorf("arq: transmit test frame: %w", err)
	}
	e.waitForTxDrain()
	e.t.consumeHalted()
	return nil
}

// ReceiveTick implements spec §4.5.2's receive path: one poll of the
// forward demodulator, updating session state and reporting whatever
// happened this tick.
func (e *Engine) ReceiveTick(now time.Time) (rxCallsign *[framer.CallsignBytes]byte, payload []byte) {
	e.t.SetMode(modemcodec.Forward)

	sync, raw, gotFrame := e.t.Rx()
	if sync != 0 {
		e.receiver.OnSync(now)
	}

	if gotFrame {
		f, err := framer.Unpack(raw)
		if err != nil {
			e.log.Debug("dropping malformed forward frame", "err", err)
		} else {
			e.receiver.OnFrame(now, f)
			cs := f.Callsign
			rxCallsign = &cs
		}
	}

	if complete, ok := e.receiver.TakePayload(); ok {
		payload = complete
	}

	return rxCallsign, payload
}

// RequestRetransmit implements spec §4.5.4: the receiver side's explicit
// retransmit request, bounded per spec §9 instead of recursing.
func (e *Engine) RequestRetransmit() RetransmitOutcome {
	status, missing := e.receiver.CheckMissedFrames(time.Now())
	if status != session.Missing {
		return RetransmitNoOp
	}

	for round := 0; round < e.cfg.MaxRetransmitRounds; round++ {
		if len(missing) == 0 {
			return RetransmitComplete
		}

		for _, frameID := range missing {
			if !e.requestOneFrame(frameID) {
				return RetransmitFailed
			}
		}

		status, missing = e.receiver.CheckMissedFrames(time.Now())
		if status != session.Missing {
			return RetransmitComplete
		}
	}

	e.log.Warn("retransmit request exceeded round budget", "missing", missing)
	return RetransmitFailed
}

// requestOneFrame asks for a single missing frame_id, retrying up to
// RetransmitRequestRetries times (spec §4.5.4 steps 2a-2d).
func (e *Engine) requestOneFrame(frameID byte) bool {
	for attempt := 0; attempt < e.cfg.RetransmitRequestRetries; attempt++ {
		e.t.SetMode(modemcodec.Control)
		req := buildRetransmitRequest(e.cfg.Callsign, frameID)
		if err := e.t.Tx(req); err != nil {
			e.log.Warn("failed to send retransmit request", "frame_id", frameID, "err", err)
			continue
		}
		e.waitForTxDrain()

		if e.t.consumeHalted() {
			return false
		}

		if e.waitForRetransmit() {
			return true
		}
	}
	return false
}

// waitForArq implements spec §4.5.3: after a burst train, wait up to
// ArqWaitTime for a control-mode retransmit request; service it in
// forward mode and re-enter the wait, bounded by MaxRetransmitRounds
// instead of the Python original's recursion.
func (e *Engine) waitForArq() *[framer.CallsignBytes]byte {
	e.t.SetMode(modemcodec.Control)

	var lastPeer *[framer.CallsignBytes]byte

	for round := 0; round < e.cfg.MaxRetransmitRounds; round++ {
		deadline := time.Now().Add(e.cfg.ArqWaitTime)
		requested := false

		for time.Now().Before(deadline) {
			_, raw, gotFrame := e.t.Rx()
			if gotFrame {
				req, err := parseRetransmitRequest(raw)
				if err == nil {
					lastPeer = &req.Callsign
					e.log.Info("ARQ retransmit request received", "frame_id", req.RetransmitID)
					e.retransmitFrame(req.RetransmitID)
					requested = true
				}
				break
			}
			time.Sleep(e.cfg.PollInterval)
		}

		if !requested {
			e.log.Debug("ARQ wait timed out, treating burst as acknowledged")
			return lastPeer
		}

		e.t.SetMode(modemcodec.Control)
	}

	return lastPeer
}

// retransmitFrame re-sends a single cached forward-mode frame by index
// (spec §4.5.3's arq_retransmit_frame).
func (e *Engine) retransmitFrame(frameID byte) {
	if int(frameID) >= len(e.sender.Frames) {
		e.log.Warn("retransmit request for unknown frame_id", "frame_id", frameID)
		return
	}

	e.t.SetMode(modemcodec.Forward)
	if err := e.t.Tx(e.sender.Frames[frameID].PackBytes()); err != nil {
		e.log.Warn("failed to retransmit frame", "frame_id", frameID, "err", err)
		return
	}
	e.waitForTxDrain()
}

// waitForRetransmit implements spec §4.5.4c: wait up to
// RetransmitWaitTime for the first successful forward-mode reception.
func (e *Engine) waitForRetransmit() bool {
	e.t.SetMode(modemcodec.Forward)
	deadline := time.Now().Add(e.cfg.RetransmitWaitTime)

	for time.Now().Before(deadline) {
		now := time.Now()
		sync, raw, gotFrame := e.t.Rx()
		if sync != 0 {
			e.receiver.OnSync(now)
		}
		if gotFrame {
			f, err := framer.Unpack(raw)
			if err == nil {
				e.receiver.OnFrame(now, f)
				return true
			}
		}
		time.Sleep(e.cfg.PollInterval)
	}
	return false
}

func (e *Engine) waitForTxDrain() {
	for e.t.IsTransmitting() {
		time.Sleep(e.cfg.PollInterval)
	}
}

// HaltTx aborts an in-flight transmission (spec §5's halt_tx).
func (e *Engine) HaltTx() {
	e.t.HaltTx()
}
