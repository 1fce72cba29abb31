package ptt

import (
	"fmt"

	"github.com/xylo04/goHamlib"
)

// hamlibController keys the transmitter over CAT control, the backend
// src/ptt.go calls PTT_METHOD_HAMLIB but left stubbed out
// ("Hamlib support currently disabled due to mid-stage porting
// complexity"); this repo finishes that wiring against goHamlib.
type hamlibController struct {
	rig *goHamlib.Rig
}

func newHamlibController(model int, device string) (Controller, error) {
	if device == "" {
		return nil, fmt.Errorf("ptt: hamlib backend requires a device string")
	}

	rig := &goHamlib.Rig{}
	rig.SetModel(model)
	if err := rig.SetConf("rig_pathname", device); err != nil {
		return nil, fmt.Errorf("ptt: hamlib set device %s: %w", device, err)
	}
	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("ptt: hamlib open: %w", err)
	}
	return &hamlibController{rig: rig}, nil
}

func (h *hamlibController) PTTOn() error {
	if err := h.rig.SetPtt(goHamlib.VFOCurr, goHamlib.PttOn); err != nil {
		return fmt.Errorf("ptt: hamlib set_ptt on: %w", err)
	}
	return nil
}

func (h *hamlibController) PTTOff() error {
	if err := h.rig.SetPtt(goHamlib.VFOCurr, goHamlib.PttOff); err != nil {
		return fmt.Errorf("ptt: hamlib set_ptt off: %w", err)
	}
	return nil
}

func (h *hamlibController) Close() error {
	h.rig.Close()
	return nil
}
