package frontend

import (
	"context"

	gohamlib "github.com/xylo04/goHamlib"
)

// HamlibTuner adapts a Hamlib-controlled rig to the front-end's tuning
// calls (SetSampleRate/SetCenterFreq/SetGains). It does not itself
// source IQ samples: Hamlib rigs expose tuning and metering, not a
// sample stream, so StartRx/StopRx delegate to a wrapped IQ source
// (typically a Soundcard reading the rig's IF/baseband output).
type HamlibTuner struct {
	Source Device // the actual IQ-producing device, e.g. a Soundcard

	rig   *gohamlib.Rig
	model int
	port  string
}

func NewHamlibTuner(model int, port string, source Device) *HamlibTuner {
	return &HamlibTuner{Source: source, model: model, port: port}
}

func (h *HamlibTuner) Open() error {
	rig := gohamlib.NewRig(h.model, h.port)
	if err := rig.Open(); err != nil {
		return &ErrDeviceUnavailable{Op: "hamlib.Open", Err: err}
	}
	h.rig = rig
	return h.Source.Open()
}

func (h *HamlibTuner) SetSampleRate(hz uint32) error {
	return h.Source.SetSampleRate(hz)
}

func (h *HamlibTuner) SetCenterFreq(hz uint64) error {
	if err := h.rig.SetFreq(gohamlib.VFOCurrent, float64(hz)); err != nil {
		return &ErrDeviceUnavailable{Op: "hamlib.SetFreq", Err: err}
	}
	return h.Source.SetCenterFreq(hz)
}

func (h *HamlibTuner) SetGains(lna, vga, amp int) error {
	if err := h.rig.SetRFGain(float64(lna)); err != nil {
		return &ErrDeviceUnavailable{Op: "hamlib.SetRFGain", Err: err}
	}
	return h.Source.SetGains(lna, vga, amp)
}

func (h *HamlibTuner) StartRx(ctx context.Context, cb IQCallback) error {
	return h.Source.StartRx(ctx, cb)
}

func (h *HamlibTuner) StopRx() error {
	return h.Source.StopRx()
}

func (h *HamlibTuner) Close() error {
	srcErr := h.Source.Close()
	if h.rig != nil {
		_ = h.rig.Close()
	}
	return srcErr
}
