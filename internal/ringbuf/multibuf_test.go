package ringbuf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/kb6px/sdrpipe/internal/ringbuf"
)

func TestMultiReaderUsedBoundedByCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(4, 200).Draw(t, "capacity")
		m := ringbuf.NewMultiReader(capacity)

		for range rapid.IntRange(0, 15).Draw(t, "n_ops") {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				p := rapid.SliceOfN(rapid.Byte(), 0, capacity*2).Draw(t, "payload")
				m.Write(p)
			case 1:
				out := make([]byte, rapid.IntRange(0, capacity).Draw(t, "n"))
				m.Read(ringbuf.ReaderDemod, out)
			case 2:
				out := make([]byte, rapid.IntRange(0, capacity).Draw(t, "n"))
				m.Read(ringbuf.ReaderPSD, out)
			}

			demodAvail := m.Available(ringbuf.ReaderDemod)
			psdAvail := m.Available(ringbuf.ReaderPSD)
			used := demodAvail
			if psdAvail > used {
				used = psdAvail
			}
			assert.LessOrEqual(t, used, capacity)
			assert.GreaterOrEqual(t, demodAvail, 0)
			assert.GreaterOrEqual(t, psdAvail, 0)
		}
	})
}

func TestMultiReaderDropsSlowestReaderOnOverflow(t *testing.T) {
	m := ringbuf.NewMultiReader(8)

	m.Write([]byte{1, 2, 3, 4})
	// Demod reads along, psd lags entirely behind.
	out := make([]byte, 4)
	m.Read(ringbuf.ReaderDemod, out)

	// Now force an overflow: psd (slowest, tail=0) should take the drop.
	m.Write([]byte{5, 6, 7, 8, 9, 10, 11, 12})

	assert.Greater(t, m.Drops(ringbuf.ReaderPSD), uint64(0))
	assert.Equal(t, uint64(0), m.Drops(ringbuf.ReaderDemod))
}

func TestMultiReaderIndependentTails(t *testing.T) {
	m := ringbuf.NewMultiReader(32)
	m.Write([]byte("hello world"))

	out := make([]byte, 5)
	n := m.Read(ringbuf.ReaderDemod, out)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(out))

	// PSD reader hasn't consumed anything yet — it should still see all 11 bytes.
	assert.Equal(t, 11, m.Available(ringbuf.ReaderPSD))
	assert.Equal(t, 6, m.Available(ringbuf.ReaderDemod))
}

func TestMultiReaderFastForwardDropsNoBacklog(t *testing.T) {
	m := ringbuf.NewMultiReader(32)
	m.Write([]byte("ignored while disarmed"))
	m.FastForward(ringbuf.ReaderPSD)

	assert.Equal(t, 0, m.Available(ringbuf.ReaderPSD))
	assert.Equal(t, uint64(0), m.Drops(ringbuf.ReaderPSD))
}
