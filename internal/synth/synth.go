// Package synth generates a speech-like placeholder waveform for speech
// that could not be captured from the sound card.
package synth

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/dgnsrekt/speakwav/internal/pcm"
)

const (
	// DefaultSecondsPerChar is the assumed speaking time per character.
	DefaultSecondsPerChar = 0.05

	// DefaultMinDuration is the shortest waveform ever produced.
	DefaultMinDuration = time.Second

	// DefaultSampleRate is used when the host does not report one.
	DefaultSampleRate = 48000
)

// Config controls the duration heuristic and output rate.
type Config struct {
	SampleRate     int
	SecondsPerChar float64
	MinDuration    time.Duration
}

// DefaultConfig returns the stock heuristic at the default sample rate.
func DefaultConfig() Config {
	return Config{
		SampleRate:     DefaultSampleRate,
		SecondsPerChar: DefaultSecondsPerChar,
		MinDuration:    DefaultMinDuration,
	}
}

// Synthesizer produces a voiced-sounding buffer: a drifting fundamental
// with two harmonics and a slow syllabic amplitude modulation.
type Synthesizer struct {
	cfg Config
}

// New creates a synthesizer. Zero fields fall back to the defaults.
func New(cfg Config) *Synthesizer {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.SecondsPerChar <= 0 {
		cfg.SecondsPerChar = def.SecondsPerChar
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = def.MinDuration
	}
	return &Synthesizer{cfg: cfg}
}

// SampleRate returns the rate of produced buffers.
func (s *Synthesizer) SampleRate() int {
	return s.cfg.SampleRate
}

// Duration returns the estimated spoken duration of text in seconds.
func (s *Synthesizer) Duration(text string) float64 {
	d := float64(utf8.RuneCountInString(text)) * s.cfg.SecondsPerChar
	return math.Max(d, s.cfg.MinDuration.Seconds())
}

// Frames returns the number of samples Synthesize produces for text.
func (s *Synthesizer) Frames(text string) int {
	return int(math.Floor(s.Duration(text) * float64(s.cfg.SampleRate)))
}

// Synthesize renders the placeholder waveform for text. It never fails;
// empty text yields the minimum duration.
func (s *Synthesizer) Synthesize(text string) pcm.Buffer {
	rate := float64(s.cfg.SampleRate)
	buf := pcm.NewMono(s.cfg.SampleRate, s.Frames(text))

	for i := range buf.Samples {
		t := float64(i) / rate
		f := 150 + 50*math.Sin(2*t)

		signal := 0.3*math.Sin(2*math.Pi*f*t) +
			0.1*math.Sin(2*math.Pi*2*f*t) +
			0.05*math.Sin(2*math.Pi*3*f*t)
		am := 1 + 0.1*math.Sin(10*t)

		buf.Samples[i] = float32(signal * am * 0.8)
	}

	return buf
}
