package ringbuf_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kb6px/sdrpipe/internal/ringbuf"
)

func TestSignaledWriteReadFIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(8, 256).Draw(t, "capacity")
		buf := ringbuf.NewSignaled(capacity)

		chunks := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 1, 32), 1, 20).Draw(t, "chunks")

		var written, readBack []byte
		for _, c := range chunks {
			n := buf.Write(c)
			written = append(written, c[:n]...)

			out := make([]byte, n)
			got := buf.Read(out)
			readBack = append(readBack, out[:got]...)

			require.LessOrEqual(t, buf.Available(), capacity)
		}

		assert.Equal(t, written, readBack)
	})
}

func TestSignaledAvailableBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 128).Draw(t, "capacity")
		buf := ringbuf.NewSignaled(capacity)

		for range rapid.IntRange(0, 10).Draw(t, "n_ops") {
			if rapid.Bool().Draw(t, "write") {
				p := rapid.SliceOfN(rapid.Byte(), 0, capacity*2).Draw(t, "payload")
				buf.Write(p)
			} else {
				out := make([]byte, rapid.IntRange(0, capacity*2).Draw(t, "read_len"))
				buf.Read(out)
			}
			avail := buf.Available()
			assert.GreaterOrEqual(t, avail, 0)
			assert.LessOrEqual(t, avail, capacity)
		}
	})
}

func TestSignaledWriteDropsWhenFull(t *testing.T) {
	buf := ringbuf.NewSignaled(4)
	n := buf.Write([]byte{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 4, n, "write should only fill free capacity, deficit is caller's to account")
	assert.Equal(t, 4, buf.Available())
}

func TestSignaledReadBlockingWakesOnStop(t *testing.T) {
	buf := ringbuf.NewSignaled(16)
	var stop ringbuf.Stop

	done := make(chan int, 1)
	go func() {
		out := make([]byte, 100) // more than will ever be written
		done <- buf.ReadBlocking(out, &stop)
	}()

	time.Sleep(10 * time.Millisecond) // let the goroutine park
	stop.Assert()
	buf.WakeAll()

	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadBlocking did not wake within bounded time after stop+wake-all")
	}
}

func TestSignaledReadBlockingReturnsExactlyN(t *testing.T) {
	buf := ringbuf.NewSignaled(64)
	var stop ringbuf.Stop
	var wg sync.WaitGroup
	wg.Add(1)

	var got int
	go func() {
		defer wg.Done()
		out := make([]byte, 10)
		got = buf.ReadBlocking(out, &stop)
	}()

	time.Sleep(5 * time.Millisecond)
	buf.Write(make([]byte, 10))
	wg.Wait()

	assert.Equal(t, 10, got)
}
