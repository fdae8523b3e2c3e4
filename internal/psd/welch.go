// Package psd implements the Welch-method power spectral density
// estimator: windowing, segment DFT, averaging, unit scaling, and span
// cropping.
package psd

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Config is a PSD job snapshot: everything needed to run one Welch
// cycle over a captured block of IQ samples.
type Config struct {
	SampleRate float64 // F_in
	RBWHz      float64 // target resolution bandwidth
	Overlap    float64 // fraction in [0,1)
	Window     Window
	Scale      Scale
	SpanHz     float64 // output crop width, centered on CenterHz
	CenterHz   float64
}

// NPerSeg derives nperseg = 2^ceil(log2(ENBW*Fs/RBW)), the smallest
// power of two satisfying the target resolution bandwidth.
func (c Config) NPerSeg() int {
	target := c.Window.ENBW() * c.SampleRate / c.RBWHz
	k := int(math.Ceil(math.Log2(target)))
	if k < 1 {
		k = 1
	}
	return 1 << uint(k)
}

// NOverlap derives noverlap = floor(overlap * nperseg).
func (c Config) NOverlap(nperseg int) int {
	return int(math.Floor(c.Overlap * float64(nperseg)))
}

// Result is one Welch cycle's output: parallel freq/power slices
// already shifted to absolute Hz and cropped to the configured span.
type Result struct {
	FreqHz []float64
	Power  []float64 // in the configured Scale's units
	NSeg   int
}

// Run executes the Welch estimator over iq (already converted to
// complex samples).
func Run(iq []complex128, cfg Config) Result {
	nperseg := cfg.NPerSeg()
	noverlap := cfg.NOverlap(nperseg)
	step := nperseg - noverlap
	if step < 1 {
		step = 1
	}

	nSeg := 0
	if len(iq) >= noverlap {
		nSeg = (len(iq) - noverlap) / step
	}

	win := cfg.Window.Coefficients(nperseg)
	var windowPowerSum float64
	for _, w := range win {
		windowPowerSum += w * w
	}
	u := windowPowerSum / float64(nperseg) // mean(window^2)

	accum := make([]float64, nperseg)
	fft := fourier.NewCmplxFFT(nperseg)
	segment := make([]complex128, nperseg)

	for s := 0; s < nSeg; s++ {
		start := s * step
		for i := 0; i < nperseg; i++ {
			segment[i] = iq[start+i] * complex(win[i], 0)
		}
		spectrum := fft.Coefficients(nil, segment)
		for i, c := range spectrum {
			mag := cmplx.Abs(c)
			accum[i] += mag * mag
		}
	}

	norm := 1.0
	if nSeg > 0 {
		norm = 1.0 / (cfg.SampleRate * u * float64(nSeg) * float64(nperseg))
	}

	linear := make([]float64, nperseg)
	for i := range linear {
		linear[i] = accum[i] * norm
	}
	linear = fftShift(linear)

	freq := make([]float64, nperseg)
	binHz := cfg.SampleRate / float64(nperseg)
	for i := range freq {
		freq[i] = -cfg.SampleRate/2 + float64(i)*binHz
	}

	lo, hi := cropIndices(freq, cfg.SpanHz)

	result := Result{NSeg: nSeg}
	for i := lo; i <= hi; i++ {
		result.FreqHz = append(result.FreqHz, freq[i]+cfg.CenterHz)
		result.Power = append(result.Power, cfg.Scale.Apply(linear[i]))
	}
	return result
}

// fftShift moves the zero-frequency bin to the center of the slice.
func fftShift(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	mid := n / 2
	copy(out[:n-mid], in[mid:])
	copy(out[n-mid:], in[:mid])
	return out
}

// cropIndices finds the first index with f >= -span/2 and the last with
// f <= +span/2. If span is <= 0, the whole axis is retained.
func cropIndices(freq []float64, span float64) (lo, hi int) {
	if span <= 0 {
		return 0, len(freq) - 1
	}
	half := span / 2
	lo, hi = 0, len(freq)-1
	for i, f := range freq {
		if f >= -half {
			lo = i
			break
		}
	}
	for i := len(freq) - 1; i >= 0; i-- {
		if freq[i] <= half {
			hi = i
			break
		}
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
