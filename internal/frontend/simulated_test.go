package frontend_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb6px/sdrpipe/internal/frontend"
)

func TestSimulatedDeliversBurstsUntilStopped(t *testing.T) {
	dev := frontend.NewSimulated(10000, 0.01)
	dev.BurstLen = 256
	require.NoError(t, dev.Open())
	require.NoError(t, dev.SetSampleRate(192000))
	require.NoError(t, dev.SetCenterFreq(100000000))

	var bursts int32
	var lastLen int32
	require.NoError(t, dev.StartRx(context.Background(), func(iq []int8) {
		atomic.AddInt32(&bursts, 1)
		atomic.StoreInt32(&lastLen, int32(len(iq)))
	}))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, dev.StopRx())

	assert.Greater(t, atomic.LoadInt32(&bursts), int32(0))
	assert.Equal(t, int32(512), atomic.LoadInt32(&lastLen))
	require.NoError(t, dev.Close())
}
