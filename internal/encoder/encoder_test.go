package encoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb6px/sdrpipe/internal/encoder"
)

func TestPassthroughRoundTripsLength(t *testing.T) {
	pcm := make([]int16, 960)
	for i := range pcm {
		pcm[i] = int16(i)
	}
	enc := encoder.Passthrough{}
	out, err := enc.Encode(pcm)
	require.NoError(t, err)
	assert.Equal(t, len(pcm)*2, len(out))
}

func TestPassthroughEnforcesBound(t *testing.T) {
	enc := encoder.Passthrough{MaxBytes: 10}
	_, err := enc.Encode(make([]int16, 960))
	assert.Error(t, err)
}
