package sink

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Monitor plays decoded PCM locally through the default soundcard
// output, for operator monitoring alongside the network sink. Grounded
// on IntuitionEngine's OtoPlayer: an oto.Context plus a reader
// implementing Read([]byte), fed from a small ring of pending samples.
type Monitor struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	pending []float32
	started bool
}

func NewMonitor(sampleRate int, channels int) (*Monitor, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	m := &Monitor{ctx: ctx}
	m.player = ctx.NewPlayer(m)
	return m, nil
}

// Push queues PCM samples (normalized to [-1,1]) for playback.
func (m *Monitor) Push(samples []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, samples...)
	const maxBacklog = 1 << 16
	if len(m.pending) > maxBacklog {
		m.pending = m.pending[len(m.pending)-maxBacklog:]
	}
}

// Read implements io.Reader for oto.Player, emitting silence when the
// backlog underruns.
func (m *Monitor) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	numSamples := len(p) / 4
	for i := 0; i < numSamples; i++ {
		var v float32
		if i < len(m.pending) {
			v = m.pending[i]
		}
		bits := math.Float32bits(v)
		p[4*i+0] = byte(bits)
		p[4*i+1] = byte(bits >> 8)
		p[4*i+2] = byte(bits >> 16)
		p[4*i+3] = byte(bits >> 24)
	}
	if numSamples <= len(m.pending) {
		m.pending = m.pending[numSamples:]
	} else {
		m.pending = m.pending[:0]
	}
	return len(p), nil
}

func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		m.player.Play()
		m.started = true
	}
}

func (m *Monitor) Close() error {
	return m.player.Close()
}
