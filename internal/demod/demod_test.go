package demod_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb6px/sdrpipe/internal/demod"
)

func TestFMToneRecoversFrequency(t *testing.T) {
	const fsDemod = 192000
	const decimation = 4 // -> 48kHz audio
	const f0 = 10000.0   // 10kHz tone

	fm := demod.NewFM(fsDemod, decimation, 8000, 0.05)

	var sumHz, n float64
	const startupSamples = fsDemod / 10 // let the phase/EMA settle
	const total = fsDemod * 2           // 2 seconds worth

	for k := 0; k < total; k++ {
		phase := 2 * math.Pi * f0 * float64(k) / fsDemod
		i, q := math.Cos(phase), math.Sin(phase)
		_, _, report := fm.ProcessSample(i, q)
		if k > startupSamples && report != nil {
			sumHz += report.EMAKHz * 1000
			n++
		}
	}

	require.Greater(t, n, 0.0)
	meanHz := sumHz / n
	assert.InDelta(t, f0, meanHz, f0*0.05) // within 5% given EMA lag at cadence granularity
}

func TestAMDepthConvergesWithinTolerance(t *testing.T) {
	const fsDemod = 192000
	const decimation = 4
	const fm = 1000.0
	const m = 0.5

	am := demod.NewAM(decimation, 20000)

	var last *demod.AMReport
	const total = fsDemod * 3 // 3 seconds

	for k := 0; k < total; k++ {
		env := 1 + m*math.Sin(2*math.Pi*fm*float64(k)/fsDemod)
		_, _, report := am.ProcessSample(env, 0)
		if report != nil {
			last = report
		}
	}

	require.NotNil(t, last)
	assert.InDelta(t, m, last.DepthEMA, 0.05)
}

func TestModeDispatchUniformInterface(t *testing.T) {
	fmDemod := demod.New(demod.FM, 192000, 4, 8000)
	amDemod := demod.New(demod.AM, 192000, 4, 8000)

	for _, d := range []demod.Demodulator{fmDemod, amDemod} {
		_, _, _ = d.Process(1, 0)
	}
}
