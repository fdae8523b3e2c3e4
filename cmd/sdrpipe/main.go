// Command sdrpipe runs one real-time SDR streaming session: it tunes an
// RF front-end, demodulates FM or AM, streams framed audio over TCP,
// and periodically writes a Welch PSD spectrum to CSV. Grounded on
// doismellburning-samoyed's cmd/direwolf/main.go for flag parsing,
// startup-failure exit codes, and signal-driven shutdown.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/kb6px/sdrpipe/internal/config"
	"github.com/kb6px/sdrpipe/internal/demod"
	"github.com/kb6px/sdrpipe/internal/encoder"
	"github.com/kb6px/sdrpipe/internal/frontend"
	"github.com/kb6px/sdrpipe/internal/metrics"
	"github.com/kb6px/sdrpipe/internal/pipeline"
	"github.com/kb6px/sdrpipe/internal/psd"
	"github.com/kb6px/sdrpipe/internal/sink"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := config.RegisterFlags(pflag.CommandLine)
	simulate := pflag.Bool("simulate", false, "Use a synthetic tone/noise front-end instead of a physical device.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return 0
	}

	base, err := config.Load(*flags.ConfigFile)
	if err != nil {
		log.Error("failed to load config", "err", err)
		return 1
	}
	cfg := flags.Apply(base, pflag.CommandLine)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid session configuration", "err", err)
		return 1
	}
	log.Info("starting sdrpipe", "session", cfg.Summary())

	var device frontend.Device
	if *simulate {
		device = frontend.NewSimulated(10000, 0.02)
	} else {
		device = frontend.NewSoundcard()
	}

	demodulator := demod.New(cfg.DemodMode(), int(cfg.DemodRateHz), cfg.AudioDecimation(), cfg.AudioGain)

	tcpSink, ln, err := sink.ListenAndAcceptOne(cfg.TCPListenAddr)
	if err != nil {
		log.Error("failed to start audio sink", "err", err)
		return 1
	}
	defer ln.Close()

	csvSink := sink.NewCSV(cfg.CSVPath, psd.ParseScale(cfg.Scale))

	m := metrics.New()
	orch := pipeline.New(cfg, device, demodulator, encoder.Passthrough{MaxBytes: 1500}, tcpSink, csvSink, m)

	if cfg.LocalMonitor {
		monitor, err := sink.NewMonitor(int(cfg.AudioRateHz), 1)
		if err != nil {
			log.Warn("local monitor playback unavailable", "err", err)
		} else {
			monitor.Start()
			defer monitor.Close()
			orch.SetMonitor(monitor)
		}
	}

	httpServer := metrics.NewServer(cfg.MetricsAddr, m, orch)
	go func() {
		if err := httpServer.Run(); err != nil {
			log.Error("metrics server stopped", "err", err)
		}
	}()

	sched, err := metrics.NewScheduler()
	if err != nil {
		log.Error("failed to start scheduler", "err", err)
		return 1
	}
	_ = sched.ReportEvery(5*time.Second, func() {
		snap := m.Report()
		log.Info("drop report",
			"raw_iq", snap.RawIQDrops,
			"demod_iq", snap.DemodIQDrops,
			"pcm", snap.PCMDrops,
			"psd", snap.PSDDrops,
		)
	})
	sched.Start()
	defer sched.Stop()

	var announcement *sink.Discovery
	if cfg.DNSSDName != "" {
		if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
			announcement, err = sink.Announce(cfg.DNSSDName, tcpAddr.Port)
			if err != nil {
				log.Warn("dns-sd announce failed", "err", err)
			}
		}
	}
	if announcement != nil {
		defer announcement.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := orch.Run(ctx); err != nil {
		log.Error("pipeline terminated with error", "err", err)
		return 1
	}
	log.Info("sdrpipe shut down cleanly")
	return 0
}
