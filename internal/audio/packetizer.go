// Package audio groups demodulated PCM samples into fixed-duration
// frames and hands each frame to an external encoder and sink, framing
// the compressed payload for the downstream TCP consumer with
// length-prefixed, big-endian framed records.
package audio

import (
	"encoding/binary"
	"fmt"
)

// FrameMagic identifies a framed audio record ("OPU0").
const FrameMagic uint32 = 0x4F505530

const headerLen = 16

// Encoder compresses one PCM frame. Implementations are expected to
// return a bounded-length payload (<=1500 bytes, to fit one Ethernet
// MTU); the packetizer does not itself enforce that bound.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

// Sink accepts framed byte records. A write failure is fatal to the
// session: there is no partial-frame recovery.
type Sink interface {
	Write(record []byte) error
}

// Packetizer accumulates PCM samples into frame_samples-sized frames
// and emits one framed record per frame.
type Packetizer struct {
	frameSamples int
	sampleRate   uint32
	channels     uint16
	enc          Encoder
	sink         Sink

	buf []int16
	seq uint32
}

// New constructs a Packetizer. frameSamples = F_audio*frame_ms/1000.
func New(frameSamples int, sampleRate uint32, channels uint16, enc Encoder, sink Sink) *Packetizer {
	return &Packetizer{
		frameSamples: frameSamples,
		sampleRate:   sampleRate,
		channels:     channels,
		enc:          enc,
		sink:         sink,
		buf:          make([]int16, 0, frameSamples),
	}
}

// Push appends one PCM sample, emitting a framed record whenever a full
// frame has accumulated. Returns an error only on encoder or sink
// failure, at which point the caller must terminate the session.
func (p *Packetizer) Push(sample int16) error {
	p.buf = append(p.buf, sample)
	if len(p.buf) < p.frameSamples {
		return nil
	}
	frame := p.buf
	p.buf = make([]int16, 0, p.frameSamples)
	return p.emit(frame)
}

func (p *Packetizer) emit(frame []int16) error {
	payload, err := p.enc.Encode(frame)
	if err != nil {
		return fmt.Errorf("audio: encode frame %d: %w", p.seq, err)
	}
	if len(payload) > 0xFFFF {
		return fmt.Errorf("audio: encoded frame %d too large (%d bytes)", p.seq, len(payload))
	}

	record := make([]byte, headerLen+len(payload))
	binary.BigEndian.PutUint32(record[0:4], FrameMagic)
	binary.BigEndian.PutUint32(record[4:8], p.seq)
	binary.BigEndian.PutUint32(record[8:12], p.sampleRate)
	binary.BigEndian.PutUint16(record[12:14], p.channels)
	binary.BigEndian.PutUint16(record[14:16], uint16(len(payload)))
	copy(record[headerLen:], payload)

	if err := p.sink.Write(record); err != nil {
		return fmt.Errorf("audio: sink write frame %d: %w", p.seq, err)
	}
	p.seq++
	return nil
}
