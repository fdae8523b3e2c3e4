package frontend

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kb6px/sdrpipe/internal/rtprio"
)

// Simulated is a synthetic front-end generating a tone plus Gaussian
// noise at the configured sample rate, used for tests and demo runs
// without a physical device.
type Simulated struct {
	ToneHz    float64
	NoiseSigma float64
	BurstLen  int // IQ byte pairs per callback invocation

	mu         sync.Mutex
	sampleRate uint32
	centerHz   uint64
	rng        *rand.Rand

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSimulated(toneHz, noiseSigma float64) *Simulated {
	return &Simulated{
		ToneHz:     toneHz,
		NoiseSigma: noiseSigma,
		BurstLen:   4096,
		rng:        rand.New(rand.NewSource(1)),
	}
}

func (s *Simulated) Open() error { return nil }

func (s *Simulated) SetSampleRate(hz uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleRate = hz
	return nil
}

func (s *Simulated) SetCenterFreq(hz uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centerHz = hz
	return nil
}

func (s *Simulated) SetGains(lna, vga, amp int) error { return nil }

func (s *Simulated) StartRx(ctx context.Context, cb IQCallback) error {
	s.mu.Lock()
	rate := s.sampleRate
	s.mu.Unlock()
	if rate == 0 {
		rate = 2048000
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	burstDuration := time.Duration(float64(s.BurstLen) / float64(rate) * float64(time.Second))
	go func() {
		defer close(s.done)
		// Raised from inside the callback-hosting goroutine itself,
		// since runtime.LockOSThread only affects the calling
		// goroutine's OS thread.
		if err := rtprio.HintCallbackThread(-5); err != nil {
			log.Warn("could not raise callback thread priority", "err", err)
		}
		ticker := time.NewTicker(burstDuration)
		defer ticker.Stop()
		var phase float64
		dPhase := 2 * math.Pi * s.ToneHz / float64(rate)
		buf := make([]int8, s.BurstLen*2)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				for i := 0; i < s.BurstLen; i++ {
					iVal := math.Cos(phase) + s.rng.NormFloat64()*s.NoiseSigma
					qVal := math.Sin(phase) + s.rng.NormFloat64()*s.NoiseSigma
					buf[2*i] = clampInt8(iVal * 127)
					buf[2*i+1] = clampInt8(qVal * 127)
					phase += dPhase
				}
				cb(buf)
			}
		}
	}()
	return nil
}

func (s *Simulated) StopRx() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return nil
}

func (s *Simulated) Close() error { return nil }

func clampInt8(v float64) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}
