package frontend

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Soundcard drives a stereo line-in as a direct-sampling IQ source: left
// channel is I, right channel is Q, both already centered at baseband by
// external hardware. Grounded on portaudio's stream/callback model.
type Soundcard struct {
	DeviceIndex int // -1 selects the default input device

	stream     *portaudio.Stream
	sampleRate uint32
}

func NewSoundcard() *Soundcard {
	return &Soundcard{DeviceIndex: -1}
}

func (s *Soundcard) Open() error {
	if err := portaudio.Initialize(); err != nil {
		return &ErrDeviceUnavailable{Op: "portaudio.Initialize", Err: err}
	}
	return nil
}

func (s *Soundcard) SetSampleRate(hz uint32) error {
	s.sampleRate = hz
	return nil
}

func (s *Soundcard) SetCenterFreq(hz uint64) error {
	// A soundcard has no tunable local oscillator; center frequency is
	// fixed by the external mixer hardware feeding line-in.
	return nil
}

func (s *Soundcard) SetGains(lna, vga, amp int) error {
	// Line-in gain is not exposed per-channel through portaudio; gain
	// staging happens in the external mixer.
	return nil
}

// StartRx opens and starts the stream. Unlike Simulated, there is no
// callback-hosting goroutine here to apply a scheduling hint to: the
// callback below is invoked directly by PortAudio's own native audio
// thread via cgo, which runtime.LockOSThread cannot reach into.
func (s *Soundcard) StartRx(ctx context.Context, cb IQCallback) error {
	in := make([]int16, 4096)
	callback := func(inBuf []int16) {
		iq := make([]int8, len(inBuf))
		for i := 0; i < len(inBuf); i += 2 {
			iq[i] = int8(inBuf[i] >> 8)
			if i+1 < len(inBuf) {
				iq[i+1] = int8(inBuf[i+1] >> 8)
			}
		}
		cb(iq)
	}

	params := portaudio.StreamParameters{}
	params.Input.Channels = 2
	params.SampleRate = float64(s.sampleRate)
	params.FramesPerBuffer = len(in) / 2

	var dev *portaudio.DeviceInfo
	if s.DeviceIndex >= 0 {
		devs, err := portaudio.Devices()
		if err != nil {
			return &ErrDeviceUnavailable{Op: "portaudio.Devices", Err: err}
		}
		if s.DeviceIndex >= len(devs) {
			return &ErrDeviceUnavailable{Op: "portaudio.Devices", Err: fmt.Errorf("index %d out of range", s.DeviceIndex)}
		}
		dev = devs[s.DeviceIndex]
		params.Input.Device = dev
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return &ErrDeviceUnavailable{Op: "portaudio.OpenStream", Err: err}
	}
	if err := stream.Start(); err != nil {
		return &ErrDeviceUnavailable{Op: "portaudio.Stream.Start", Err: err}
	}
	s.stream = stream

	go func() {
		<-ctx.Done()
		_ = stream.Stop()
	}()
	return nil
}

func (s *Soundcard) StopRx() error {
	if s.stream == nil {
		return nil
	}
	return s.stream.Stop()
}

func (s *Soundcard) Close() error {
	if s.stream != nil {
		_ = s.stream.Close()
	}
	return portaudio.Terminate()
}
