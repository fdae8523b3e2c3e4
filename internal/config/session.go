// Package config loads and validates a pipeline session configuration
// from YAML plus command-line overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kb6px/sdrpipe/internal/demod"
	"github.com/kb6px/sdrpipe/internal/perrors"
	"github.com/kb6px/sdrpipe/internal/psd"
)

// PSDMode selects when the PSD worker captures: continuously,
// for a fixed campaign of cycles, or never (demod-only sessions).
type PSDMode int

const (
	// PSDContinuous re-arms immediately after each cycle.
	PSDContinuous PSDMode = iota
	// PSDCampaign runs a fixed number of cycles then stops arming.
	PSDCampaign
	// PSDDemodOnly never arms; the PSD buffer is never read and its
	// drop counter stays at zero.
	PSDDemodOnly
)

func ParsePSDMode(s string) PSDMode {
	switch s {
	case "campaign":
		return PSDCampaign
	case "demod_only", "demod-only":
		return PSDDemodOnly
	default:
		return PSDContinuous
	}
}

// Session is the full session configuration: the stream fingerprint
// plus demodulator, PSD, front-end, and ambient settings, including
// antenna port selection and PPM frequency correction for tuner
// front-ends.
type Session struct {
	CenterFreqHz   uint64  `yaml:"center_freq_hz"`
	SampleRateHz   uint32  `yaml:"sample_rate_hz"`
	DemodRateHz    uint32  `yaml:"demod_rate_hz"`
	AudioRateHz    uint32  `yaml:"audio_rate_hz"`
	Mode           string  `yaml:"mode"`
	AudioGain      float64 `yaml:"audio_gain"`
	FrameMs        int     `yaml:"frame_ms"`
	RBWHz          float64 `yaml:"rbw_hz"`
	Overlap        float64 `yaml:"overlap"`
	Window         string  `yaml:"window"`
	Scale          string  `yaml:"scale"`
	SpanHz         float64 `yaml:"span_hz"`
	LNAGain        int     `yaml:"lna_gain"`
	VGAGain        int     `yaml:"vga_gain"`
	AmpEnabled     bool    `yaml:"amp_enabled"`
	PPMError       float64 `yaml:"ppm_error"`
	AntennaPort    string  `yaml:"antenna_port"`
	PSDModeName    string  `yaml:"psd_mode"`
	PSDCampaignN   int     `yaml:"psd_campaign_cycles"`
	PSDPostSleepMs int     `yaml:"psd_post_sleep_ms"`
	TCPListenAddr  string  `yaml:"tcp_listen_addr"`
	CSVPath        string  `yaml:"psd_csv_path"`
	MetricsAddr    string  `yaml:"metrics_addr"`
	DNSSDName      string  `yaml:"dns_sd_name"`
	LocalMonitor   bool    `yaml:"local_monitor"`
}

// Load reads a YAML config file. A missing or empty path returns a
// zero-value Session for the caller to fill via flag overrides.
func Load(path string) (Session, error) {
	var s Session
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

// Validate enforces the stream-fingerprint invariants:
// F_in mod F_demod = 0, F_demod mod F_audio = 0, R_dec >= 2,
// frame_ms * F_audio / 1000 is an integer.
func (s Session) Validate() error {
	if s.SampleRateHz == 0 || s.DemodRateHz == 0 || s.AudioRateHz == 0 {
		return &perrors.ConfigError{Field: "sample_rate_hz/demod_rate_hz/audio_rate_hz", Err: fmt.Errorf("rates must be nonzero")}
	}
	if s.SampleRateHz%s.DemodRateHz != 0 {
		return &perrors.ConfigError{Field: "sample_rate_hz", Err: fmt.Errorf("%d is not a multiple of demod_rate_hz %d", s.SampleRateHz, s.DemodRateHz)}
	}
	rDec := s.SampleRateHz / s.DemodRateHz
	if rDec < 2 {
		return &perrors.ConfigError{Field: "sample_rate_hz", Err: fmt.Errorf("decimation factor %d must be >= 2", rDec)}
	}
	if s.DemodRateHz%s.AudioRateHz != 0 {
		return &perrors.ConfigError{Field: "demod_rate_hz", Err: fmt.Errorf("%d is not a multiple of audio_rate_hz %d", s.DemodRateHz, s.AudioRateHz)}
	}
	frameSamples := float64(s.FrameMs) * float64(s.AudioRateHz) / 1000.0
	if frameSamples != float64(int(frameSamples)) || frameSamples <= 0 {
		return &perrors.ConfigError{Field: "frame_ms", Err: fmt.Errorf("frame_ms*audio_rate_hz/1000 = %v is not a positive integer", frameSamples)}
	}
	switch s.Mode {
	case "FM", "AM", "":
	default:
		return &perrors.ConfigError{Field: "mode", Err: fmt.Errorf("unknown mode %q", s.Mode)}
	}
	if s.Overlap < 0 || s.Overlap >= 1 {
		return &perrors.ConfigError{Field: "overlap", Err: fmt.Errorf("overlap %v must be in [0,1)", s.Overlap)}
	}
	return nil
}

// DemodMode maps the string Mode field to demod.Mode, defaulting to FM.
func (s Session) DemodMode() demod.Mode {
	if s.Mode == "AM" {
		return demod.AM
	}
	return demod.FM
}

// FrameSamples is F_audio*frame_ms/1000, the packetizer's frame size.
func (s Session) FrameSamples() int {
	return s.FrameMs * int(s.AudioRateHz) / 1000
}

// DecimationFactor is R_dec = F_in/F_demod.
func (s Session) DecimationFactor() int {
	return int(s.SampleRateHz / s.DemodRateHz)
}

// AudioDecimation is D_aud = F_demod/F_audio.
func (s Session) AudioDecimation() int {
	return int(s.DemodRateHz / s.AudioRateHz)
}

// PSDPostSleep is the delay the PSD thread waits after writing one
// CSV cycle before re-arming, defaulting to 200ms when unset.
func (s Session) PSDPostSleep() time.Duration {
	if s.PSDPostSleepMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(s.PSDPostSleepMs) * time.Millisecond
}

// PSDConfig builds a psd.Config snapshot from this session.
func (s Session) PSDConfig() psd.Config {
	return psd.Config{
		SampleRate: float64(s.SampleRateHz),
		RBWHz:      s.RBWHz,
		Overlap:    s.Overlap,
		Window:     psd.ParseWindow(s.Window),
		Scale:      psd.ParseScale(s.Scale),
		SpanHz:     s.SpanHz,
		CenterHz:   float64(s.CenterFreqHz),
	}
}

// Summary renders a one-line human-readable description of the active
// session for the startup log line.
func (s Session) Summary() string {
	return fmt.Sprintf(
		"mode=%s center=%dHz in=%dHz demod=%dHz audio=%dHz frame=%dms window=%s scale=%s",
		s.Mode, s.CenterFreqHz, s.SampleRateHz, s.DemodRateHz, s.AudioRateHz, s.FrameMs, s.Window, s.Scale,
	)
}
