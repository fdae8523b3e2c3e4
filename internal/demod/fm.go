// Package demod implements the two demodulator state machines that
// consume demod-rate IQ and produce 16-bit PCM: FM (phase-difference)
// and AM (envelope).
package demod

import "math"

// FMReport carries a periodic deviation-quality snapshot, emitted every
// ~0.5s worth of demod-rate samples.
type FMReport struct {
	PeakKHz float64
	EMAKHz  float64
}

// FM is a phase-difference FM demodulator with audio-rate boxcar
// decimation and a rolling deviation metric.
type FM struct {
	sampleRateDemod int
	decimation      int
	audioGain       float64

	lastPhase float64

	sumAudio   float64
	decCounter int

	devMaxHz       float64
	devEMAHz       float64
	devEMAAlpha    float64
	devCounter     int
	devReportEvery int
}

// NewFM builds an FM demodulator. decimation is D_aud = F_demod/F_audio.
// devEMAAlpha is the smoothing factor for the deviation EMA (0.05 in the
// pipeline's worker loop, 0.01 for a standalone metric).
func NewFM(sampleRateDemod, decimation int, audioGain, devEMAAlpha float64) *FM {
	return &FM{
		sampleRateDemod: sampleRateDemod,
		decimation:      decimation,
		audioGain:       audioGain,
		devEMAAlpha:     devEMAAlpha,
		devReportEvery:  sampleRateDemod / 2, // ~0.5s of demod-rate samples
	}
}

// PhaseDiff computes wrap(atan2(q,i) - lastPhase) to (-pi, pi] and
// advances the internal phase memory.
func (f *FM) PhaseDiff(i, q float64) float64 {
	phase := math.Atan2(q, i)
	d := phase - f.lastPhase
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	if d <= -math.Pi {
		d += 2 * math.Pi
	}
	f.lastPhase = phase
	return d
}

// ProcessSample feeds one normalized IQ sample ([-1,1] range). When the
// boxcar decimator has accumulated D_aud samples it returns the clamped
// int16 PCM sample and ok=true; otherwise ok=false. report is non-nil
// whenever the deviation-report window has elapsed on this call.
func (f *FM) ProcessSample(i, q float64) (pcm int16, ok bool, report *FMReport) {
	dphi := f.PhaseDiff(i, q)

	f.sumAudio += dphi
	f.decCounter++
	if f.decCounter >= f.decimation {
		audio := f.sumAudio / float64(f.decimation)
		pcm = floatToInt16(audio * f.audioGain)
		f.sumAudio = 0
		f.decCounter = 0
		ok = true
	}

	report = f.updateDeviation(dphi)
	return pcm, ok, report
}

func (f *FM) updateDeviation(dphi float64) *FMReport {
	hz := math.Abs(dphi) * float64(f.sampleRateDemod) / (2 * math.Pi)
	if hz > f.devMaxHz {
		f.devMaxHz = hz
	}
	f.devEMAHz = (1-f.devEMAAlpha)*f.devEMAHz + f.devEMAAlpha*hz

	f.devCounter++
	if f.devCounter < f.devReportEvery {
		return nil
	}
	r := &FMReport{
		PeakKHz: f.devMaxHz / 1e3,
		EMAKHz:  f.devEMAHz / 1e3,
	}
	f.devMaxHz = 0
	f.devCounter = 0
	return r
}

func floatToInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(math.RoundToEven(v))
}
