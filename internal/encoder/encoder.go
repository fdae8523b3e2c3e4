// Package encoder defines the audio codec boundary consumed by the
// packetizer. A real compressing codec (Opus or similar) is not
// implemented here; Passthrough below is a placeholder satisfying the
// interface for wiring and tests.
package encoder

import (
	"encoding/binary"
	"fmt"
)

// Encoder compresses one PCM frame into a bounded-length byte payload.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

// Passthrough emits PCM as big-endian int16 pairs, unchanged. It exists
// to exercise the packetizer and sink end to end without depending on a
// real codec implementation.
type Passthrough struct {
	MaxBytes int // 0 means unbounded
}

func (p Passthrough) Encode(pcm []int16) ([]byte, error) {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.BigEndian.PutUint16(out[i*2:], uint16(s))
	}
	if p.MaxBytes > 0 && len(out) > p.MaxBytes {
		return nil, fmt.Errorf("encoder: passthrough frame %d bytes exceeds bound %d", len(out), p.MaxBytes)
	}
	return out, nil
}
