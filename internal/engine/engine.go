// Package engine runs the single cooperative worker goroutine spec §4.6
// describes: one thread that reads pending commands, drives the ARQ
// send/receive paths, and posts events to a single-consumer sink,
// without ever blocking on that consumer.
package engine

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/freetvgo/freetvgo/internal/arq"
)

// Command is something the application/UI side asks the worker to do.
type Command int

const (
	// CmdTransmitTest sends the callsign||"TEST" control frame.
	CmdTransmitTest Command = iota
	// CmdRequestRetransmit runs the receiver-side retransmit request.
	CmdRequestRetransmit
	// CmdTransmit sends an application payload; see TransmitRequest.
	CmdTransmit
	// CmdStop drains audio, closes the transceiver, and exits the loop.
	CmdStop
)

// TransmitRequest is the payload of a CmdTransmit command.
type TransmitRequest struct {
	Data []byte
}

// request is what actually travels down the command channel: a command
// kind plus whatever data it carries.
type request struct {
	cmd     Command
	payload []byte
}

// EventKind identifies which field of Event is populated.
type EventKind int

const (
	EventTransmitActive EventKind = iota
	EventRxCallsign
	EventRxPayload
	EventRetransmitFailed
	// EventTransmitRejected fires when a submitted payload could not be
	// sent at all, e.g. PayloadTooLarge (spec §6.3/§7: surfaced to the
	// caller, never retried).
	EventTransmitRejected
)

// Event is one item posted to the engine's event sink (spec §6.3).
type Event struct {
	Kind     EventKind
	Active   bool   // EventTransmitActive
	Callsign string // EventRxCallsign
	Payload  []byte // EventRxPayload
	Reason   string // EventTransmitRejected
}

// Engine runs the spec §4.6 priority loop around an *arq.Engine.
type Engine struct {
	arq *arq.Engine
	log *log.Logger

	cmds   chan request
	events chan Event

	pollInterval time.Duration

	testPending       bool
	retransmitPending bool
	transmitPending   []byte

	stopped bool
}

// New builds an Engine loop around an already-wired ARQ engine. The
// event channel is buffered so the worker never blocks posting to a
// slow or absent consumer (spec §4.6, "never blocks on the consumer");
// callers that care about every event should drain it promptly.
func New(a *arq.Engine, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		arq:          a,
		log:          logger.With("component", "engine"),
		cmds:         make(chan request, 8),
		events:       make(chan Event, 64),
		pollInterval: 10 * time.Millisecond,
	}
}

// Events returns the single-consumer event stream.
func (e *Engine) Events() <-chan Event { return e.events }

// SubmitPayload queues an application payload for transmission
// (spec §6.3 submit_payload).
func (e *Engine) SubmitPayload(data []byte) {
	e.cmds <- request{cmd: CmdTransmit, payload: data}
}

// SubmitRetransmitRequest queues a retransmit request (submit_retransmit_request).
func (e *Engine) SubmitRetransmitRequest() {
	e.cmds <- request{cmd: CmdRequestRetransmit}
}

// SubmitTestFrame queues a test-frame transmission (submit_test_frame).
func (e *Engine) SubmitTestFrame() {
	e.cmds <- request{cmd: CmdTransmitTest}
}

// Stop requests the loop exit at its next iteration (spec §5's stop()).
func (e *Engine) Stop() {
	e.cmds <- request{cmd: CmdStop}
}

// Run executes the spec §4.6 priority loop until Stop is called. It is
// meant to be the body of the one goroutine the engine worker owns.
func (e *Engine) Run() {
	for !e.stopped {
		e.drainCommands()

		switch {
		case e.testPending:
			e.runTestFrame()
		case e.retransmitPending:
			e.runRetransmit()
		case len(e.transmitPending) > 0 || e.arq.Transceiver().IsTransmitting():
			e.runTransmitStep()
		default:
			e.runReceiveTick()
		}
	}

	e.log.Info("engine loop stopped")
	e.arq.HaltTx()
	if err := e.arq.Transceiver().Close(); err != nil {
		e.log.Warn("error closing transceiver on stop", "err", err)
	}
}

// drainCommands pulls every command currently queued without blocking,
// latching each into the priority-ordered pending state spec §4.6 names.
func (e *Engine) drainCommands() {
	for {
		select {
		case req := <-e.cmds:
			e.applyCommand(req)
		default:
			return
		}
	}
}

func (e *Engine) applyCommand(req request) {
	switch req.cmd {
	case CmdTransmitTest:
		e.testPending = true
	case CmdRequestRetransmit:
		e.retransmitPending = true
	case CmdTransmit:
		e.transmitPending = req.payload
	case CmdStop:
		e.stopped = true
	}
}

func (e *Engine) runTestFrame() {
	e.testPending = false
	e.emit(Event{Kind: EventTransmitActive, Active: true})
	if err := e.arq.TransmitTestFrame(); err != nil {
		e.log.Warn("test frame transmission failed", "err", err)
	}
	e.emit(Event{Kind: EventTransmitActive, Active: false})
}

func (e *Engine) runRetransmit() {
	e.retransmitPending = false
	outcome := e.arq.RequestRetransmit()
	if outcome == arq.RetransmitFailed {
		e.emit(Event{Kind: EventRetransmitFailed})
	}
}

// runTransmitStep sends one full application payload. Unlike the other
// branches this blocks the loop for the duration of the send and its
// ARQ wait (spec §4.5.1): that is exactly what step 3 of spec §4.6
// describes ("perform a send step" for as long as transmitting).
func (e *Engine) runTransmitStep() {
	data := e.transmitPending
	e.transmitPending = nil

	e.emit(Event{Kind: EventTransmitActive, Active: true})
	if err := e.arq.Transmit(data); err != nil {
		e.log.Warn("transmit failed", "err", err)
		e.emit(Event{Kind: EventTransmitRejected, Reason: err.Error()})
	}
	e.emit(Event{Kind: EventTransmitActive, Active: false})
}

func (e *Engine) runReceiveTick() {
	cs, payload := e.arq.ReceiveTick(time.Now())
	if cs != nil {
		e.emit(Event{Kind: EventRxCallsign, Callsign: trimCallsign(cs[:])})
	}
	if payload != nil {
		e.emit(Event{Kind: EventRxPayload, Payload: payload})
	}
	if cs == nil && payload == nil {
		time.Sleep(e.pollInterval)
	}
}

// emit posts without ever blocking the worker on a stalled consumer
// (spec §4.6): a full event channel drops the oldest-pending event
// rather than stalling the loop.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		select {
		case <-e.events:
		default:
		}
		select {
		case e.events <- ev:
		default:
		}
	}
}

func trimCallsign(raw []byte) string {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}
