package audio_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb6px/sdrpipe/internal/audio"
)

type passthroughEncoder struct{}

func (passthroughEncoder) Encode(pcm []int16) ([]byte, error) {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.BigEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out, nil
}

type collectingSink struct {
	records [][]byte
	failAt  int // -1 disables
}

func (s *collectingSink) Write(record []byte) error {
	if s.failAt >= 0 && len(s.records) == s.failAt {
		return errors.New("write failed")
	}
	cp := append([]byte(nil), record...)
	s.records = append(s.records, cp)
	return nil
}

func TestPacketizerFramingInvariants(t *testing.T) {
	const frameSamples = 960
	sink := &collectingSink{failAt: -1}
	p := audio.New(frameSamples, 48000, 1, passthroughEncoder{}, sink)

	for frame := 0; frame < 5; frame++ {
		for i := 0; i < frameSamples; i++ {
			require.NoError(t, p.Push(int16(i)))
		}
	}

	require.Len(t, sink.records, 5)
	for i, rec := range sink.records {
		require.GreaterOrEqual(t, len(rec), 16)
		magic := binary.BigEndian.Uint32(rec[0:4])
		assert.Equal(t, audio.FrameMagic, magic)

		seq := binary.BigEndian.Uint32(rec[4:8])
		assert.Equal(t, uint32(i), seq)

		rate := binary.BigEndian.Uint32(rec[8:12])
		assert.Equal(t, uint32(48000), rate)

		payloadLen := binary.BigEndian.Uint16(rec[14:16])
		assert.Equal(t, len(rec)-16, int(payloadLen))
	}
}

func TestPacketizerSequenceStrictlyIncreasingFromZero(t *testing.T) {
	const frameSamples = 10
	sink := &collectingSink{failAt: -1}
	p := audio.New(frameSamples, 8000, 1, passthroughEncoder{}, sink)

	for frame := 0; frame < 20; frame++ {
		for i := 0; i < frameSamples; i++ {
			require.NoError(t, p.Push(0))
		}
	}

	var last int64 = -1
	for _, rec := range sink.records {
		seq := int64(binary.BigEndian.Uint32(rec[4:8]))
		assert.Greater(t, seq, last)
		last = seq
	}
}

func TestPacketizerTerminatesOnSinkFailure(t *testing.T) {
	const frameSamples = 4
	sink := &collectingSink{failAt: 1}
	p := audio.New(frameSamples, 8000, 1, passthroughEncoder{}, sink)

	for i := 0; i < frameSamples; i++ {
		require.NoError(t, p.Push(0))
	}
	var err error
	for i := 0; i < frameSamples; i++ {
		err = p.Push(0)
	}
	assert.Error(t, err)
}
