// Package cic implements a fixed-point cascaded integrator-comb
// decimator for interleaved 8-bit signed IQ samples.
package cic

const maxStages = 4

// Decimator is an N-stage CIC decimator by factor R. The zero value is
// not usable; construct with New.
type Decimator struct {
	r, n int
	ctr  int

	integI, integQ [maxStages]int64
	combI, combQ   [maxStages]int64

	gain int64
}

// New builds a CIC decimator with the given decimation factor R and
// stage count N. N defaults to 3 when n <= 0, and is capped at
// maxStages.
func New(r, n int) *Decimator {
	if n <= 0 {
		n = 3
	}
	if n > maxStages {
		n = maxStages
	}
	if r < 2 {
		r = 2
	}
	gain := int64(1)
	for range n {
		gain *= int64(r)
	}
	return &Decimator{r: r, n: n, gain: gain}
}

// ProcessOne advances the integrator chain by one input IQ sample and,
// every R inputs, pushes the result through the comb chain, normalizes
// by R^N, and clamps to int8 range. ok reports whether an output sample
// was produced on this call.
func (d *Decimator) ProcessOne(xi, xq int8) (yi, yq int8, ok bool) {
	vi, vq := int64(xi), int64(xq)
	for s := 0; s < d.n; s++ {
		d.integI[s] += vi
		d.integQ[s] += vq
		vi = d.integI[s]
		vq = d.integQ[s]
	}

	d.ctr++
	if d.ctr < d.r {
		return 0, 0, false
	}
	d.ctr = 0

	for s := 0; s < d.n; s++ {
		prevI, prevQ := d.combI[s], d.combQ[s]
		d.combI[s], d.combQ[s] = vi, vq
		vi -= prevI
		vq -= prevQ
	}

	vi /= d.gain
	vq /= d.gain

	return clampInt8(vi), clampInt8(vq), true
}

func clampInt8(v int64) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}

// ProcessBuffer runs ProcessOne over an interleaved I,Q byte slice
// (signed 8-bit pairs) and appends each produced output pair to out,
// returning the extended slice.
func (d *Decimator) ProcessBuffer(in []byte, out []byte) []byte {
	for i := 0; i+1 < len(in); i += 2 {
		yi, yq, ok := d.ProcessOne(int8(in[i]), int8(in[i+1]))
		if ok {
			out = append(out, byte(yi), byte(yq))
		}
	}
	return out
}
