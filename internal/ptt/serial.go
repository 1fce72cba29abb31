package ptt

import (
	"fmt"

	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// serialController toggles RTS on an already-open serial port, the same
// ioctl dance src/ptt.go's RTS_ON/RTS_OFF do, opened the way
// src/serial_port.go opens its port via pkg/term.
type serialController struct {
	t *term.Term
}

func newSerialController(device string) (Controller, error) {
	if device == "" {
		return nil, fmt.Errorf("ptt: serial backend requires a device path")
	}
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("ptt: opening serial port %s: %w", device, err)
	}
	return &serialController{t: t}, nil
}

func (s *serialController) PTTOn() error  { return s.setRTS(true) }
func (s *serialController) PTTOff() error { return s.setRTS(false) }

func (s *serialController) setRTS(on bool) error {
	fd := int(s.t.Fd())
	status, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return fmt.Errorf("ptt: TIOCMGET: %w", err)
	}
	if on {
		status |= unix.TIOCM_RTS
	} else {
		status &^= unix.TIOCM_RTS
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCMSET, status); err != nil {
		return fmt.Errorf("ptt: TIOCMSET: %w", err)
	}
	return nil
}

func (s *serialController) Close() error { return s.t.Close() }
