package config

import "github.com/spf13/pflag"

// Flags binds CLI overrides onto a Session, layered over a
// YAML-loaded base rather than replacing it outright.
type Flags struct {
	ConfigFile *string
	CenterHz   *uint64
	SampleRate *uint32
	DemodRate  *uint32
	AudioRate  *uint32
	Mode       *string
	AudioGain  *float64
	FrameMs    *int
	Window     *string
	Scale      *string
	RBWHz      *float64
	SpanHz     *float64
	PPMError   *float64
}

// RegisterFlags declares the CLI flags on fs, returning pointers the
// caller reads after fs.Parse().
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	return &Flags{
		ConfigFile: fs.StringP("config-file", "c", "", "YAML session configuration file."),
		CenterHz:   fs.Uint64P("center-freq-hz", "f", 0, "RF front-end center frequency, in Hz."),
		SampleRate: fs.Uint32P("sample-rate-hz", "s", 0, "Front-end input sample rate, in Hz."),
		DemodRate:  fs.Uint32P("demod-rate-hz", "d", 0, "Post-CIC demodulation rate, in Hz."),
		AudioRate:  fs.Uint32P("audio-rate-hz", "a", 0, "Post-decimation audio rate, in Hz."),
		Mode:       fs.StringP("mode", "m", "", "Demodulator mode: FM or AM."),
		AudioGain:  fs.Float64P("audio-gain", "g", 0, "Scalar gain applied before the int16 clamp."),
		FrameMs:    fs.IntP("frame-ms", "F", 0, "Audio packet duration, in milliseconds."),
		Window:     fs.StringP("window", "w", "", "Welch analysis window."),
		Scale:      fs.StringP("scale", "u", "", "PSD output unit scale."),
		RBWHz:      fs.Float64P("rbw-hz", "r", 0, "Target Welch resolution bandwidth, in Hz."),
		SpanHz:     fs.Float64P("span-hz", "p", 0, "PSD output span width, in Hz."),
		PPMError:   fs.Float64P("ppm-error", "e", 0, "Front-end frequency correction, in PPM."),
	}
}

// Apply overlays any flags the user actually set onto base, returning
// the merged Session.
func (flags *Flags) Apply(base Session, fs *pflag.FlagSet) Session {
	s := base
	if fs.Changed("center-freq-hz") {
		s.CenterFreqHz = *flags.CenterHz
	}
	if fs.Changed("sample-rate-hz") {
		s.SampleRateHz = *flags.SampleRate
	}
	if fs.Changed("demod-rate-hz") {
		s.DemodRateHz = *flags.DemodRate
	}
	if fs.Changed("audio-rate-hz") {
		s.AudioRateHz = *flags.AudioRate
	}
	if fs.Changed("mode") {
		s.Mode = *flags.Mode
	}
	if fs.Changed("audio-gain") {
		s.AudioGain = *flags.AudioGain
	}
	if fs.Changed("frame-ms") {
		s.FrameMs = *flags.FrameMs
	}
	if fs.Changed("window") {
		s.Window = *flags.Window
	}
	if fs.Changed("scale") {
		s.Scale = *flags.Scale
	}
	if fs.Changed("rbw-hz") {
		s.RBWHz = *flags.RBWHz
	}
	if fs.Changed("span-hz") {
		s.SpanHz = *flags.SpanHz
	}
	if fs.Changed("ppm-error") {
		s.PPMError = *flags.PPMError
	}
	return s
}
