// Package frontend defines the RF front-end capability the pipeline
// orchestrator consumes, and provides a synthetic implementation for
// testing plus tuner/soundcard adapters over the front-end's physical
// transports. Grounded on the device-abstraction style of
// tve-devices/sx1231 (a Radio type with configuration setters and a
// channel/callback-driven receive path).
package frontend

import "context"

// IQCallback receives one burst of interleaved signed-8-bit IQ bytes.
// Implementations must not allocate, log, or block.
type IQCallback func(iq []int8)

// Device is the minimal RF front-end capability set the orchestrator
// consumes: open/configure/start/stop/close, nothing else.
type Device interface {
	Open() error
	SetSampleRate(hz uint32) error
	SetCenterFreq(hz uint64) error
	SetGains(lna, vga, amp int) error
	StartRx(ctx context.Context, cb IQCallback) error
	StopRx() error
	Close() error
}

// ErrDeviceUnavailable wraps front-end open/configure failures, which
// are fatal at startup.
type ErrDeviceUnavailable struct {
	Op  string
	Err error
}

func (e *ErrDeviceUnavailable) Error() string {
	return "frontend: " + e.Op + ": " + e.Err.Error()
}

func (e *ErrDeviceUnavailable) Unwrap() error { return e.Err }
