// Package portaudio implements capture.Source on top of PortAudio. Display
// audio is served from a loopback or monitor input when the host exposes
// one; microphone audio comes from the default or a named input device.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"

	"github.com/dgnsrekt/speakwav/internal/capture"
)

const (
	// DefaultSampleRate is requested from input devices. Opus accepts it natively.
	DefaultSampleRate = 48000

	// DefaultFramesPerBuffer is 20ms at DefaultSampleRate.
	DefaultFramesPerBuffer = 960
)

// loopbackHints are lowercase substrings of device names that carry the
// host's playback mix back as an input.
var loopbackHints = []string{"monitor", "loopback", "stereo mix", "what u hear", "blackhole", "soundflower"}

// Config holds configuration for the PortAudio source.
type Config struct {
	SampleRate      float64
	FramesPerBuffer int
}

// DefaultConfig returns default capture configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:      DefaultSampleRate,
		FramesPerBuffer: DefaultFramesPerBuffer,
	}
}

// Source is a capture.Source backed by PortAudio. Close must be called to
// release the library.
type Source struct {
	mu          sync.Mutex
	cfg         Config
	initialized bool
	logger      *log.Logger
}

// NewSource initializes PortAudio.
func NewSource(cfg Config, logger *log.Logger) (*Source, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = int(cfg.SampleRate / 50)
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &Source{cfg: cfg, initialized: true, logger: logger.WithPrefix("portaudio")}, nil
}

// RequestDisplayAudio opens the first loopback-like input device.
func (s *Source) RequestDisplayAudio(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	if err := checkConstraints(c); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && isLoopback(dev.Name) {
			s.logger.Debug("Using loopback device", "device", dev.Name)
			return s.open(dev)
		}
	}
	return nil, fmt.Errorf("%w: no loopback or monitor input device", capture.ErrNotSupported)
}

// RequestMicrophoneAudio opens the named input device, or the default one.
func (s *Source) RequestMicrophoneAudio(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	if err := checkConstraints(c); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.DeviceID != "" && c.DeviceID != capture.DefaultDevice {
		dev, err := findDeviceByName(c.DeviceID)
		if err != nil {
			return nil, err
		}
		return s.open(dev)
	}

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capture.ErrNotSupported, err)
	}
	return s.open(dev)
}

// Close terminates PortAudio.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	s.initialized = false
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

func (s *Source) open(dev *portaudio.DeviceInfo) (capture.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, errors.New("portaudio source is closed")
	}

	st := &stream{
		id:         uuid.NewString(),
		sampleRate: int(s.cfg.SampleRate),
		frames:     make(chan []float32, 100),
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      s.cfg.SampleRate,
		FramesPerBuffer: s.cfg.FramesPerBuffer,
	}

	pa, err := portaudio.OpenStream(params, st.process)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream on %q: %w", dev.Name, err)
	}
	if err := pa.Start(); err != nil {
		_ = pa.Close()
		return nil, fmt.Errorf("failed to start audio stream on %q: %w", dev.Name, err)
	}
	st.pa = pa
	st.running = true

	return st, nil
}

// stream adapts a running PortAudio input stream to capture.Stream.
type stream struct {
	mu         sync.Mutex
	id         string
	sampleRate int
	pa         *portaudio.Stream
	frames     chan []float32
	running    bool
}

func (s *stream) ID() string               { return s.id }
func (s *stream) SampleRate() int          { return s.sampleRate }
func (s *stream) Channels() int            { return 1 }
func (s *stream) Frames() <-chan []float32 { return s.frames }

// process is the PortAudio callback. in is reused by the library.
func (s *stream) process(in []float32) {
	samples := make([]float32, len(in))
	copy(samples, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	select {
	case s.frames <- samples:
	default:
		// Consumer is behind; drop the buffer.
	}
}

// Stop halts the device and closes Frames. Safe to call repeatedly.
func (s *stream) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.frames)
	pa := s.pa
	s.mu.Unlock()

	var errs []error
	if err := pa.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := pa.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close audio stream: %w", err))
	}
	return errors.Join(errs...)
}

// DefaultOutputSampleRate reports the host's default output rate, which
// the synthesizer uses for placeholder audio. It returns 0 if unknown.
func DefaultOutputSampleRate() int {
	if err := portaudio.Initialize(); err != nil {
		return 0
	}
	defer portaudio.Terminate() //nolint:errcheck

	dev, err := portaudio.DefaultOutputDevice()
	if err != nil || dev == nil {
		return 0
	}
	return int(dev.DefaultSampleRate)
}

// InputDevices lists the names of devices that can record.
func InputDevices() ([]string, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}
	var names []string
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			names = append(names, dev.Name)
		}
	}
	return names, nil
}

func findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	available, _ := InputDevices()
	return nil, deviceNotFound(name, available)
}

func deviceNotFound(name string, available []string) error {
	if len(available) == 0 {
		return fmt.Errorf("%w: device not found: %s", capture.ErrNotSupported, name)
	}
	return fmt.Errorf("%w: device not found: %s (available: %s)",
		capture.ErrNotSupported, name, strings.Join(available, ", "))
}

func isLoopback(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range loopbackHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

func checkConstraints(c capture.Constraints) error {
	if c.Video {
		return fmt.Errorf("%w: video capture", capture.ErrNotSupported)
	}
	if c.WantsProcessing() {
		return fmt.Errorf("%w: PortAudio delivers unprocessed audio only", capture.ErrNotSupported)
	}
	return nil
}
