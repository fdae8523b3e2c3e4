// Package metrics implements lock-free drop counters fed by the
// pipeline's hot paths, their Prometheus gauges, the periodic
// human-readable drop-count report scheduler, and the diagnostic HTTP
// server. Modeled on DMRHub's internal/metrics package
// (a Metrics struct wrapping prometheus collectors, registered once at
// construction).
package metrics

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kb6px/sdrpipe/internal/demod"
)

// Metrics holds the four drop counters plus their
// Prometheus-exported counterparts. The atomic fields are what the
// hot-path callback and worker threads touch; Prometheus mirrors them
// on each Report call rather than being updated inline, keeping the
// device callback allocation- and lock-free.
//
// The demod quality gauges are different: the demod thread only
// produces a report once per deviation/depth window (every ~0.5s for
// FM, ~0.1s for AM), so ReportDemod sets them directly rather than
// waiting for the periodic Report call.
type Metrics struct {
	RawIQDrops   atomic.Uint64
	DemodIQDrops atomic.Uint64
	PCMDrops     atomic.Uint64
	PSDDrops     atomic.Uint64

	rawIQDropsGauge   prometheus.Gauge
	demodIQDropsGauge prometheus.Gauge
	pcmDropsGauge     prometheus.Gauge
	psdDropsGauge     prometheus.Gauge

	fmDeviationPeakGauge prometheus.Gauge
	fmDeviationEMAGauge  prometheus.Gauge
	amDepthPeakGauge     prometheus.Gauge
	amDepthEMAGauge      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		rawIQDropsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_raw_iq_drops_total",
			Help: "Bytes dropped from the RAW-IQ buffer due to overflow.",
		}),
		demodIQDropsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_demod_iq_drops_total",
			Help: "Bytes dropped from the demod-rate IQ buffer due to overflow.",
		}),
		pcmDropsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_pcm_drops_total",
			Help: "Bytes dropped from the PCM buffer due to overflow.",
		}),
		psdDropsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_psd_drops_total",
			Help: "Bytes dropped from the PSD reader tail due to overflow.",
		}),
		fmDeviationPeakGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_fm_deviation_peak_khz",
			Help: "Peak FM deviation in kHz over the last reporting window.",
		}),
		fmDeviationEMAGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_fm_deviation_ema_khz",
			Help: "EMA-smoothed FM deviation in kHz.",
		}),
		amDepthPeakGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_am_depth_peak",
			Help: "Peak AM modulation depth over the last reporting window.",
		}),
		amDepthEMAGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sdrpipe_am_depth_ema",
			Help: "EMA-smoothed AM modulation depth.",
		}),
	}
	m.register()
	return m
}

// register adds the gauges to the default Prometheus registry. A gauge
// already registered by an earlier New is reused instead of panicking.
func (m *Metrics) register() {
	for _, g := range []*prometheus.Gauge{&m.rawIQDropsGauge, &m.demodIQDropsGauge, &m.pcmDropsGauge, &m.psdDropsGauge,
		&m.fmDeviationPeakGauge, &m.fmDeviationEMAGauge, &m.amDepthPeakGauge, &m.amDepthEMAGauge} {
		var already prometheus.AlreadyRegisteredError
		if err := prometheus.Register(*g); errors.As(err, &already) {
			*g = already.ExistingCollector.(prometheus.Gauge)
		} else if err != nil {
			panic(err)
		}
	}
}

// ReportDemod publishes one demodulator quality window to the
// diagnostic channel: the Prometheus gauges matching its mode.
func (m *Metrics) ReportDemod(rep *demod.Metrics) {
	if rep == nil {
		return
	}
	switch rep.Mode {
	case demod.FM:
		if rep.FM != nil {
			m.fmDeviationPeakGauge.Set(rep.FM.PeakKHz)
			m.fmDeviationEMAGauge.Set(rep.FM.EMAKHz)
		}
	case demod.AM:
		if rep.AM != nil {
			m.amDepthPeakGauge.Set(rep.AM.DepthPeak)
			m.amDepthEMAGauge.Set(rep.AM.DepthEMA)
		}
	}
}

// Snapshot is a point-in-time copy of all four counters, used for the
// periodic human-readable report.
type Snapshot struct {
	RawIQDrops   uint64
	DemodIQDrops uint64
	PCMDrops     uint64
	PSDDrops     uint64
}

// Report refreshes the Prometheus gauges from the atomic counters and
// returns a Snapshot for logging.
func (m *Metrics) Report() Snapshot {
	s := Snapshot{
		RawIQDrops:   m.RawIQDrops.Load(),
		DemodIQDrops: m.DemodIQDrops.Load(),
		PCMDrops:     m.PCMDrops.Load(),
		PSDDrops:     m.PSDDrops.Load(),
	}
	m.rawIQDropsGauge.Set(float64(s.RawIQDrops))
	m.demodIQDropsGauge.Set(float64(s.DemodIQDrops))
	m.pcmDropsGauge.Set(float64(s.PCMDrops))
	m.psdDropsGauge.Set(float64(s.PSDDrops))
	return s
}
