package ringbuf

import "sync/atomic"

// Stop is the pipeline-wide cancellation token. A single instance is
// shared by the orchestrator and every worker; it is checked under each
// buffer's lock whenever a blocking reader is woken, per the "park until
// predicate or cancellation" contract.
type Stop struct {
	flag atomic.Bool
}

// Assert marks the token as cancelled. Idempotent.
func (s *Stop) Assert() { s.flag.Store(true) }

// Asserted reports whether Assert has been called.
func (s *Stop) Asserted() bool { return s.flag.Load() }
