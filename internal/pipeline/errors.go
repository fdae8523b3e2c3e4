// Package pipeline wires the device callback, ring buffers, decimator,
// demodulator, packetizer, and PSD worker into one session, and owns
// their startup/shutdown lifecycle.
package pipeline

import "github.com/kb6px/sdrpipe/internal/perrors"

// Re-exported so callers of this package see the pipeline's error
// taxonomy without importing internal/perrors directly; the types live
// in perrors to avoid an import cycle with internal/config, which must
// also construct ConfigError.
type (
	ConfigError     = perrors.ConfigError
	DeviceError     = perrors.DeviceError
	SinkError       = perrors.SinkError
	PSDTimeoutError = perrors.PSDTimeoutError
)
