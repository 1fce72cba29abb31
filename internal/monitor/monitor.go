// Package monitor exposes a pty carrying a line-oriented trace of
// engine events, for operators running headless who still want
// "cat /dev/pts/N" visibility — the spec's GUI is out of scope, but a
// text stream of the same events the GUI would show is a natural
// supplement. Grounded in src/kiss.go's use of github.com/creack/pty to
// hand a KISS TNC to third-party terminal clients over a pty pair.
package monitor

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/freetvgo/freetvgo/internal/engine"
)

// Monitor owns the master/slave pty pair and writes one line per event
// it is handed.
type Monitor struct {
	master *os.File
	slave  *os.File
	log    *log.Logger
}

// Open creates the pty pair. SlaveName() is what an operator points a
// terminal program at.
func Open(logger *log.Logger) (*Monitor, error) {
	if logger == nil {
		logger = log.Default()
	}
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("monitor: opening pty: %w", err)
	}
	return &Monitor{master: master, slave: slave, log: logger.With("component", "monitor")}, nil
}

// SlaveName is the path an operator can open with any terminal program,
// e.g. `cat /dev/pts/7`.
func (m *Monitor) SlaveName() string {
	return m.slave.Name()
}

// Run writes a line per event to the pty master until events closes. A
// write error (most commonly: nothing has the slave end open yet) is
// logged and Run continues with the next event — a disconnected monitor
// must never stall the engine.
func (m *Monitor) Run(events <-chan engine.Event) {
	for ev := range events {
		line := formatEvent(ev)
		if _, err := io.WriteString(m.master, line+"\n"); err != nil {
			m.log.Debug("monitor write failed, no reader attached", "err", err)
		}
	}
}

func formatEvent(ev engine.Event) string {
	switch ev.Kind {
	case engine.EventTransmitActive:
		return fmt.Sprintf("TX_ACTIVE %t", ev.Active)
	case engine.EventRxCallsign:
		return fmt.Sprintf("RX_CALLSIGN %s", ev.Callsign)
	case engine.EventRxPayload:
		return fmt.Sprintf("RX_PAYLOAD %d bytes", len(ev.Payload))
	case engine.EventRetransmitFailed:
		return "RETRANSMIT_FAILED"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Close closes both ends of the pty pair.
func (m *Monitor) Close() error {
	err1 := m.master.Close()
	err2 := m.slave.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
