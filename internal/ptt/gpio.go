package ptt

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// gpioController drives a single GPIO line high/low for PTT, the
// libgpiod-based successor to src/ptt.go's sysfs PTT_METHOD_GPIO
// (which the teacher only ever implemented against /sys/class/gpio).
type gpioController struct {
	line *gpiocdev.Line
}

func newGPIOController(chip string, line int) (Controller, error) {
	if chip == "" {
		return nil, fmt.Errorf("ptt: gpio backend requires a chip name")
	}
	l, err := gpiocdev.RequestLine(chip, line, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("ptt: requesting %s line %d: %w", chip, line, err)
	}
	return &gpioController{line: l}, nil
}

func (g *gpioController) PTTOn() error  { return g.line.SetValue(1) }
func (g *gpioController) PTTOff() error { return g.line.SetValue(0) }
func (g *gpioController) Close() error  { return g.line.Close() }
