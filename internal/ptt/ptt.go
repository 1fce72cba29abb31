// Package ptt keys a transmitter's push-to-talk line. The Python
// original has no PTT control at all — it assumes VOX or an external
// footswitch — but a real half-duplex HF station almost always needs
// software keying so the ARQ engine's "transmitting pauses
// demodulation" discipline (spec §4.5) actually keys the radio.
//
// Grounded in src/ptt.go's multi-backend PTT_METHOD_* abstraction:
// serial RTS/DTR, GPIO, and HAMLIB CAT control, behind one interface.
package ptt

import "fmt"

// Controller keys and unkeys a transmitter.
type Controller interface {
	PTTOn() error
	PTTOff() error
	Close() error
}

// NullController is the default: no PTT line to manage, for stations
// that VOX-key or use an external footswitch, exactly like the Python
// original.
type NullController struct{}

func (NullController) PTTOn() error  { return nil }
func (NullController) PTTOff() error { return nil }
func (NullController) Close() error  { return nil }

// Backend names accepted by New, matching src/ptt.go's PTT_METHOD_*
// constants minus the ones it never finished porting (CM108, LPT,
// GPIOD) and minus PTT_METHOD_NONE, which NullController covers.
const (
	BackendNull   = "null"
	BackendSerial = "serial"
	BackendGPIO   = "gpio"
	BackendHamlib = "hamlib"
)

// Config selects and parameterizes one PTT backend.
type Config struct {
	Backend string

	SerialPort string // e.g. /dev/ttyUSB0; asserts RTS

	GPIOChip string // e.g. gpiochip0
	GPIOLine int

	HamlibRigModel int    // goHamlib rig model constant
	HamlibDevice   string // serial/network device string
}

// New builds the Controller Config.Backend selects.
func New(cfg Config) (Controller, error) {
	switch cfg.Backend {
	case "", BackendNull:
		return NullController{}, nil
	case BackendSerial:
		return newSerialController(cfg.SerialPort)
	case BackendGPIO:
		return newGPIOController(cfg.GPIOChip, cfg.GPIOLine)
	case BackendHamlib:
		return newHamlibController(cfg.HamlibRigModel, cfg.HamlibDevice)
	default:
		return nil, fmt.Errorf("ptt: unknown backend %q", cfg.Backend)
	}
}
