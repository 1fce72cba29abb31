// Package audiodev opens the real full-duplex 8 kHz mono audio stream
// spec §6.1 describes, using github.com/gordonklaus/portaudio instead
// of the teacher's cgo ALSA/OSS binding (src/audio.go): PortAudio
// already runs on every platform an operator would want to run this
// on, where src/audio.go is Linux-only.
package audiodev

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is fixed per spec §6.1.
	SampleRate = 8000
	// Channels is fixed per spec §6.1 (mono).
	Channels = 1
)

// Init must be called once before any other function in this package,
// and Terminate once at shutdown; both wrap portaudio.Initialize/Terminate.
func Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audiodev: initializing portaudio: %w", err)
	}
	return nil
}

// Terminate releases PortAudio's resources.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("audiodev: terminating portaudio: %w", err)
	}
	return nil
}

// ListDevices satisfies spec §6.1's enumeration contract: two mappings,
// index to human name, one for input-capable and one for
// output-capable devices on the default host API.
func ListDevices() (in map[int]string, out map[int]string, err error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, nil, fmt.Errorf("audiodev: listing devices: %w", err)
	}

	in = make(map[int]string)
	out = make(map[int]string)
	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			in[i] = d.Name
		}
		if d.MaxOutputChannels > 0 {
			out[i] = d.Name
		}
	}
	return in, out, nil
}

// Stream is a full-duplex 8kHz/16-bit/mono PortAudio stream whose
// real-time callback is the single seam spec §5 names between the
// audio runtime and the engine.
type Stream struct {
	stream *portaudio.Stream
}

// Callback is invoked on PortAudio's real-time thread once per period;
// it must never allocate or block, mirroring spec §5's audio callback
// contract. in holds the captured samples and out must be filled with
// what to play.
type Callback func(in []int16, out []int16)

// Open opens a full-duplex stream between the given device indices
// with the given per-callback frame count (spec §6.1: must behave
// correctly for 128-1024; 256 is the spec default).
func Open(inDevice, outDevice int, framesPerBuffer int, cb Callback) (*Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audiodev: listing devices: %w", err)
	}
	if inDevice < 0 || inDevice >= len(devices) {
		return nil, fmt.Errorf("audiodev: input device index %d out of range", inDevice)
	}
	if outDevice < 0 || outDevice >= len(devices) {
		return nil, fmt.Errorf("audiodev: output device index %d out of range", outDevice)
	}

	params := portaudio.LowLatencyParameters(devices[inDevice], devices[outDevice])
	params.Input.Channels = Channels
	params.Output.Channels = Channels
	params.SampleRate = SampleRate
	params.FramesPerBuffer = framesPerBuffer

	stream, err := portaudio.OpenStream(params, func(in, out []int16) {
		cb(in, out)
	})
	if err != nil {
		return nil, fmt.Errorf("audiodev: opening stream: %w", err)
	}

	return &Stream{stream: stream}, nil
}

// Start begins streaming.
func (s *Stream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("audiodev: starting stream: %w", err)
	}
	return nil
}

// Stop halts streaming without closing the device.
func (s *Stream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("audiodev: stopping stream: %w", err)
	}
	return nil
}

// Close releases the stream's resources.
func (s *Stream) Close() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("audiodev: closing stream: %w", err)
	}
	return nil
}
