package demod

// Mode selects the active demodulator for a session.
type Mode int

const (
	FM Mode = iota
	AM
)

func (m Mode) String() string {
	if m == AM {
		return "AM"
	}
	return "FM"
}

// Metrics is the uniform report surface both demodulators feed into the
// diagnostic channel, regardless of mode.
type Metrics struct {
	Mode Mode
	FM   *FMReport
	AM   *AMReport
}

// Demodulator is the tagged-variant interface the demod-thread loop
// dispatches to once per session (not per sample), per the "polymorphism
// over demod mode" design note.
type Demodulator interface {
	// Process consumes one normalized IQ sample and returns a PCM sample
	// (when ok) plus an optional metrics report for the diagnostic
	// channel.
	Process(i, q float64) (pcm int16, ok bool, report *Metrics)
}

type fmAdapter struct{ *FM }

func (f fmAdapter) Process(i, q float64) (int16, bool, *Metrics) {
	pcm, ok, rep := f.FM.ProcessSample(i, q)
	if rep == nil {
		return pcm, ok, nil
	}
	return pcm, ok, &Metrics{Mode: FM, FM: rep}
}

type amAdapter struct{ *AM }

func (a amAdapter) Process(i, q float64) (int16, bool, *Metrics) {
	pcm, ok, rep := a.AM.ProcessSample(i, q)
	if rep == nil {
		return pcm, ok, nil
	}
	return pcm, ok, &Metrics{Mode: AM, AM: rep}
}

// New constructs the Demodulator for the given mode, chosen once at
// session start.
func New(mode Mode, sampleRateDemod, decimation int, audioGain float64) Demodulator {
	switch mode {
	case AM:
		return amAdapter{NewAM(decimation, audioGain)}
	default:
		return fmAdapter{NewFM(sampleRateDemod, decimation, audioGain, 0.05)}
	}
}
