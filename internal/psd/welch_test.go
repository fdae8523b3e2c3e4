package psd_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb6px/sdrpipe/internal/psd"
)

// TestParsevalWhiteNoise checks that integrating the linear PSD over
// the full band recovers the input variance within 10% for K >= 8
// segments.
func TestParsevalWhiteNoise(t *testing.T) {
	const fs = 48000.0
	const sigma2 = 1.0
	rng := rand.New(rand.NewSource(1))

	cfg := psd.Config{
		SampleRate: fs,
		RBWHz:      375, // -> small nperseg so many segments fit
		Overlap:    0.5,
		Window:     psd.Rectangular,
		Scale:      psd.Watts,
		SpanHz:     0, // full band
		CenterHz:   0,
	}

	n := cfg.NPerSeg() * 200
	iq := make([]complex128, n)
	for i := range iq {
		iq[i] = complex(rng.NormFloat64()*math.Sqrt(sigma2/2), rng.NormFloat64()*math.Sqrt(sigma2/2))
	}

	result := psd.Run(iq, cfg)
	require.GreaterOrEqual(t, result.NSeg, 8)

	// The Watts scale reports p/Z over an assumed 50 ohm load; multiply
	// Z back in to integrate the linear PSD itself.
	const loadOhms = 50.0
	binHz := fs / float64(cfg.NPerSeg())
	var integral float64
	for _, p := range result.Power {
		integral += p * loadOhms * binHz
	}

	assert.InDelta(t, sigma2, integral, sigma2*0.1)
}

func TestNPerSegIsPowerOfTwo(t *testing.T) {
	cfg := psd.Config{SampleRate: 2048000, RBWHz: 1000, Window: psd.Hamming}
	n := cfg.NPerSeg()
	require.Greater(t, n, 0)
	assert.Zero(t, n&(n-1), "nperseg must be a power of two, got %d", n)
}

func TestCropRestrictsToSpan(t *testing.T) {
	cfg := psd.Config{
		SampleRate: 48000,
		RBWHz:      375,
		Window:     psd.Hann,
		Scale:      psd.DBm,
		SpanHz:     4000,
		CenterHz:   100000,
	}
	n := cfg.NPerSeg() * 10
	iq := make([]complex128, n)
	for i := range iq {
		iq[i] = complex(1, 0)
	}

	result := psd.Run(iq, cfg)
	require.NotEmpty(t, result.FreqHz)
	for _, f := range result.FreqHz {
		assert.InDelta(t, 100000, f, 2001)
	}
}

func TestScaleApplyMonotonicWithPower(t *testing.T) {
	var prev float64 = math.Inf(-1)
	for _, p := range []float64{1e-12, 1e-9, 1e-6, 1e-3, 1} {
		v := psd.DBm.Apply(p)
		assert.Greater(t, v, prev)
		prev = v
	}
}
