package pipeline

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kb6px/sdrpipe/internal/audio"
	"github.com/kb6px/sdrpipe/internal/cic"
	"github.com/kb6px/sdrpipe/internal/config"
	"github.com/kb6px/sdrpipe/internal/demod"
	"github.com/kb6px/sdrpipe/internal/frontend"
	"github.com/kb6px/sdrpipe/internal/metrics"
	"github.com/kb6px/sdrpipe/internal/psd"
	"github.com/kb6px/sdrpipe/internal/ringbuf"
)

// psdPollInterval is the PSD thread's short-sleep granularity while
// waiting for a capture window to fill.
const psdPollInterval = 20 * time.Millisecond

// psdIterationCap bounds how long the PSD thread waits for one capture
// window before abandoning the cycle with a PSDTimeoutError.
const psdIterationCap = 500 // 500 * 20ms = 10s

// CSVWriter is the sink.CSV capability the PSD thread invokes each
// cycle; declared as an interface here so pipeline does not need to
// import the sink package's concrete type.
type CSVWriter interface {
	Write(result psd.Result) error
}

// PCMMonitor receives each decoded PCM frame as normalized float32
// samples, for an optional local playback tap alongside the network
// sink. Satisfied by sink.Monitor.
type PCMMonitor interface {
	Push(samples []float32)
}

// Orchestrator owns every buffer, worker goroutine, and the device
// callback for one pipeline session. Construct with New, then
// Run to block until its context is canceled or a worker reports a
// fatal error.
type Orchestrator struct {
	cfg config.Session

	device  frontend.Device
	demod   demod.Demodulator
	decim   *cic.Decimator
	enc     audio.Encoder
	sink    audio.Sink
	csv     CSVWriter
	monitor PCMMonitor
	metrics *metrics.Metrics

	rawIQ    *ringbuf.MultiReader
	demodIQ  *ringbuf.Signaled
	pcm      *ringbuf.Signaled
	stop     *ringbuf.Stop
	wg       sync.WaitGroup

	psdCfg   psd.Config
	psdMu    sync.Mutex
	psdMode  config.PSDMode
	psdCycle int

	errOnce sync.Once
	errCh   chan error
}

// New constructs an Orchestrator. Buffers are sized to hold roughly two
// seconds of their respective stream so a slow consumer has headroom
// before drops begin.
func New(cfg config.Session, device frontend.Device, d demod.Demodulator, enc audio.Encoder, sink audio.Sink, csv CSVWriter, m *metrics.Metrics) *Orchestrator {
	rawCap := int(cfg.SampleRateHz) * 2 * 2  // 2s, 2 bytes/IQ sample
	demodCap := int(cfg.DemodRateHz) * 2 * 2 // 2s
	pcmCap := int(cfg.AudioRateHz) * 2 * 2   // 2s, int16 PCM

	return &Orchestrator{
		cfg:     cfg,
		device:  device,
		demod:   d,
		decim:   cic.New(cfg.DecimationFactor(), 0),
		enc:     enc,
		sink:    sink,
		csv:     csv,
		metrics: m,
		rawIQ:   ringbuf.NewMultiReader(rawCap),
		demodIQ: ringbuf.NewSignaled(demodCap),
		pcm:     ringbuf.NewSignaled(pcmCap),
		stop:    &ringbuf.Stop{},
		psdCfg:  cfg.PSDConfig(),
		psdMode: config.ParsePSDMode(cfg.PSDModeName),
		errCh:   make(chan error, 4),
	}
}

// SetMonitor attaches an optional local PCM monitor; call before Run.
func (o *Orchestrator) SetMonitor(m PCMMonitor) {
	o.monitor = m
}

// UpdatePSDConfig applies a live override to the PSD worker's
// configuration, taking effect on the next capture cycle. Satisfies
// metrics.PSDConfigUpdater.
func (o *Orchestrator) UpdatePSDConfig(cfg psd.Config) error {
	o.psdMu.Lock()
	defer o.psdMu.Unlock()
	o.psdCfg = cfg
	return nil
}

// Run opens the device, starts all four worker threads plus the device
// callback, and blocks until ctx is canceled or a worker reports a
// fatal error. It always performs the full shutdown sequence before
// returning.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.device.Open(); err != nil {
		return &DeviceError{Op: "open", Err: err}
	}
	if err := o.device.SetSampleRate(o.cfg.SampleRateHz); err != nil {
		_ = o.device.Close()
		return &DeviceError{Op: "set_sample_rate", Err: err}
	}
	if err := o.device.SetCenterFreq(o.cfg.CenterFreqHz); err != nil {
		_ = o.device.Close()
		return &DeviceError{Op: "set_center_freq", Err: err}
	}
	if err := o.device.SetGains(o.cfg.LNAGain, o.cfg.VGAGain, boolToGain(o.cfg.AmpEnabled)); err != nil {
		_ = o.device.Close()
		return &DeviceError{Op: "set_gains", Err: err}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.wg.Add(1)
	go o.decimThread()
	o.wg.Add(1)
	go o.demodThread()
	o.wg.Add(1)
	go o.netThread()
	if o.psdMode != config.PSDDemodOnly {
		o.wg.Add(1)
		go o.psdThread()
	}

	if err := o.device.StartRx(runCtx, o.deviceCallback); err != nil {
		o.Shutdown()
		return &DeviceError{Op: "start_rx", Err: err}
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-o.errCh:
	}

	o.Shutdown()
	return runErr
}

// Shutdown asserts stop, wakes every blocked buffer, stops and closes
// the device, and joins all worker threads.
func (o *Orchestrator) Shutdown() {
	o.stop.Assert()
	o.rawIQ.WakeAll()
	o.demodIQ.WakeAll()
	o.pcm.WakeAll()
	_ = o.device.StopRx()
	_ = o.device.Close()
	o.wg.Wait()
}

func (o *Orchestrator) fail(err error) {
	o.errOnce.Do(func() {
		select {
		case o.errCh <- err:
		default:
		}
	})
}

// deviceCallback is the hard-real-time entry point: it must not
// allocate, log, or lock at high frequency beyond the buffer's own
// locking, and it never blocks.
func (o *Orchestrator) deviceCallback(iq []int8) {
	var chunk [4096]byte // even length keeps I/Q pairs together
	for len(iq) > 0 {
		k := min(len(iq), len(chunk))
		for i, v := range iq[:k] {
			chunk[i] = byte(v)
		}
		if n := o.rawIQ.Write(chunk[:k]); n < k {
			o.metrics.RawIQDrops.Add(uint64(k - n))
		}
		iq = iq[k:]
	}
}

func (o *Orchestrator) decimThread() {
	defer o.wg.Done()
	const chunkSamples = 2048
	in := make([]byte, chunkSamples*2)
	for {
		n := o.rawIQ.ReadBlocking(ringbuf.ReaderDemod, in, o.stop)
		if n == 0 {
			if o.stop.Asserted() {
				return
			}
			continue
		}
		out := o.decim.ProcessBuffer(in[:n], nil)
		if len(out) == 0 {
			continue
		}
		written := o.demodIQ.Write(out)
		if written < len(out) {
			o.metrics.DemodIQDrops.Add(uint64(len(out) - written))
		}
	}
}

func (o *Orchestrator) demodThread() {
	defer o.wg.Done()
	pair := make([]byte, 2)
	var pcmOut [2]byte
	for {
		n := o.demodIQ.ReadBlocking(pair, o.stop)
		if n == 0 {
			if o.stop.Asserted() {
				return
			}
			continue
		}
		i := float64(int8(pair[0])) / 128.0
		q := float64(int8(pair[1])) / 128.0
		pcm, ok, report := o.demod.Process(i, q)
		if report != nil {
			o.metrics.ReportDemod(report)
			logDemodReport(report)
		}
		if !ok {
			continue
		}
		binary.LittleEndian.PutUint16(pcmOut[:], uint16(pcm))
		written := o.pcm.Write(pcmOut[:])
		if written < len(pcmOut) {
			o.metrics.PCMDrops.Add(uint64(len(pcmOut) - written))
		}
	}
}

func (o *Orchestrator) netThread() {
	defer o.wg.Done()
	frameSamples := o.cfg.FrameSamples()
	if frameSamples <= 0 {
		frameSamples = 960
	}
	packetizer := audio.New(frameSamples, o.cfg.AudioRateHz, 1, o.enc, o.sink)

	frameBytes := make([]byte, frameSamples*2)
	var monitorBuf []float32
	if o.monitor != nil {
		monitorBuf = make([]float32, frameSamples)
	}
	for {
		n := o.pcm.ReadBlocking(frameBytes, o.stop)
		if n == 0 {
			if o.stop.Asserted() {
				return
			}
			continue
		}
		for i := 0; i < frameSamples; i++ {
			sample := int16(binary.LittleEndian.Uint16(frameBytes[2*i:]))
			if err := packetizer.Push(sample); err != nil {
				o.fail(&SinkError{Op: "packetizer.push", Err: err})
				return
			}
			if monitorBuf != nil {
				monitorBuf[i] = float32(sample) / 32768.0
			}
		}
		if o.monitor != nil {
			o.monitor.Push(monitorBuf)
		}
	}
}

func (o *Orchestrator) psdThread() {
	defer o.wg.Done()
	totalBytes := int(o.cfg.SampleRateHz) * 2
	linear := make([]byte, totalBytes)

	for {
		if o.stop.Asserted() {
			return
		}

		o.rawIQ.FastForward(ringbuf.ReaderPSD)

		iterations := 0
		for o.rawIQ.Available(ringbuf.ReaderPSD) < totalBytes {
			if o.stop.Asserted() {
				return
			}
			iterations++
			if iterations > psdIterationCap {
				log.Warn("psd capture timed out, abandoning cycle", "err", &PSDTimeoutError{Iterations: iterations})
				break
			}
			time.Sleep(psdPollInterval)
		}
		if iterations > psdIterationCap {
			continue
		}

		n := o.rawIQ.Read(ringbuf.ReaderPSD, linear)
		if n < totalBytes {
			o.metrics.PSDDrops.Add(uint64(totalBytes - n))
			continue
		}

		iqSamples := make([]complex128, totalBytes/2)
		for i := range iqSamples {
			re := float64(int8(linear[2*i])) / 128.0
			im := float64(int8(linear[2*i+1])) / 128.0
			iqSamples[i] = complex(re, im)
		}

		o.psdMu.Lock()
		cfg := o.psdCfg
		o.psdMu.Unlock()

		result := psd.Run(iqSamples, cfg)
		if err := o.csv.Write(result); err != nil {
			o.fail(&SinkError{Op: "psd.csv", Err: err})
			return
		}

		if o.psdMode == config.PSDCampaign {
			o.psdCycle++
			if o.psdCycle >= o.cfg.PSDCampaignN {
				return
			}
		}

		if !interruptibleSleep(o.cfg.PSDPostSleep(), o.stop) {
			return
		}
	}
}

// interruptibleSleep sleeps for d in psdPollInterval-sized slices so a
// stop assertion is noticed promptly instead of after the full delay.
// Returns false if stop fired during the sleep.
func interruptibleSleep(d time.Duration, stop *ringbuf.Stop) bool {
	for remaining := d; remaining > 0; remaining -= psdPollInterval {
		if stop.Asserted() {
			return false
		}
		slice := psdPollInterval
		if remaining < slice {
			slice = remaining
		}
		time.Sleep(slice)
	}
	return !stop.Asserted()
}

func boolToGain(enabled bool) int {
	if enabled {
		return 1
	}
	return 0
}

// logDemodReport writes one demodulator quality window to the
// diagnostic channel in human-readable form.
func logDemodReport(report *demod.Metrics) {
	switch report.Mode {
	case demod.FM:
		if report.FM != nil {
			log.Info("fm deviation report", "peak_khz", report.FM.PeakKHz, "ema_khz", report.FM.EMAKHz)
		}
	case demod.AM:
		if report.AM != nil {
			log.Info("am depth report", "peak", report.AM.DepthPeak, "ema", report.AM.DepthEMA, "env_min", report.AM.EnvMin, "env_max", report.AM.EnvMax)
		}
	}
}
