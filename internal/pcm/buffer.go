// Package pcm holds uncompressed sample buffers shared by the synthesizer,
// the WAV encoder and the preview player.
package pcm

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBuffer is returned by Validate for malformed buffers.
var ErrInvalidBuffer = errors.New("invalid PCM buffer")

// Buffer is a mono float PCM buffer. Samples are expected in [-1, 1].
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// NewMono returns a zeroed mono buffer with the given number of frames.
func NewMono(sampleRate, frames int) Buffer {
	if frames < 0 {
		frames = 0
	}
	return Buffer{
		SampleRate: sampleRate,
		Channels:   1,
		Samples:    make([]float32, frames),
	}
}

// Len returns the number of samples.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the playback duration of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}

// Validate checks the invariants the encoder relies on.
func (b Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidBuffer, b.SampleRate)
	}
	if b.Channels != 1 {
		return fmt.Errorf("%w: channel count must be 1, got %d", ErrInvalidBuffer, b.Channels)
	}
	return nil
}

// Clamp limits v to [-1, 1].
func Clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
