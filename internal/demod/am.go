package demod

import "math"

const (
	amDCAlpha       = 1e-3
	amEnvMeanAlpha  = 5e-4
	amDepthEMAAlpha = 0.1

	// depthReportSamples is ~100ms of audio-rate samples at 48kHz.
	depthReportSamples = 4800
)

// AMReport carries a periodic modulation-depth snapshot.
type AMReport struct {
	DepthPeak float64 // m for this window, in [0,2]
	DepthEMA  float64
	EnvMin    float64
	EnvMax    float64
}

// AM is an envelope AM demodulator with DC removal on IQ, AC coupling on
// the envelope, audio-rate decimation, and a rolling modulation-depth
// metric.
type AM struct {
	decimation int
	audioGain  float64

	dcI, dcQ float64

	sumEnv     float64
	decCounter int

	envMean float64

	envMin, envMax float64
	depthEMA       float64
	depthCounter   int
}

// NewAM builds an AM demodulator. decimation is D_aud = F_demod/F_audio.
func NewAM(decimation int, audioGain float64) *AM {
	return &AM{
		decimation: decimation,
		audioGain:  audioGain,
		envMin:     math.Inf(1),
		envMax:     0,
	}
}

// ProcessSample feeds one normalized IQ sample. ok reports whether the
// envelope decimator produced an audio sample this call; report is
// non-nil whenever the depth-report window has elapsed.
func (a *AM) ProcessSample(i, q float64) (pcm int16, ok bool, report *AMReport) {
	a.dcI = (1-amDCAlpha)*a.dcI + amDCAlpha*i
	a.dcQ = (1-amDCAlpha)*a.dcQ + amDCAlpha*q
	i -= a.dcI
	q -= a.dcQ

	env := math.Hypot(i, q)

	a.sumEnv += env
	a.decCounter++
	if a.decCounter < a.decimation {
		return 0, false, nil
	}
	envDec := a.sumEnv / float64(a.decimation)
	a.sumEnv = 0
	a.decCounter = 0

	report = a.updateDepth(envDec)

	a.envMean = (1-amEnvMeanAlpha)*a.envMean + amEnvMeanAlpha*envDec
	audio := envDec - a.envMean

	return floatToInt16(audio * a.audioGain), true, report
}

func (a *AM) updateDepth(envDec float64) *AMReport {
	if envDec < a.envMin {
		a.envMin = envDec
	}
	if envDec > a.envMax {
		a.envMax = envDec
	}
	a.depthCounter++
	if a.depthCounter < depthReportSamples {
		return nil
	}

	denom := a.envMax + a.envMin
	m := 0.0
	if denom > 1e-9 {
		m = (a.envMax - a.envMin) / denom
		m = clamp(m, 0, 2)
	}
	a.depthEMA = (1-amDepthEMAAlpha)*a.depthEMA + amDepthEMAAlpha*m

	r := &AMReport{
		DepthPeak: m,
		DepthEMA:  a.depthEMA,
		EnvMin:    a.envMin,
		EnvMax:    a.envMax,
	}

	a.envMin = math.Inf(1)
	a.envMax = 0
	a.depthCounter = 0
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
