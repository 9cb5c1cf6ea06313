// Package capture negotiates access to a live audio stream of what the
// speech engine is playing. Access is never guaranteed: most hosts expose
// no loopback device and users may deny permission.
package capture

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned by Negotiator.Acquire when no capture
	// mechanism produced a stream. It is an expected outcome.
	ErrUnavailable = errors.New("audio capture unavailable")

	// ErrNotSupported is returned by sources that cannot provide a kind of capture.
	ErrNotSupported = errors.New("capture not supported on this platform")

	// ErrPermissionDenied is returned when the user refuses access.
	ErrPermissionDenied = errors.New("capture permission denied")
)

// Constraints are the audio processing requests for a capture. Capture is
// meant to be a flat passthrough, so all processing is normally disabled.
type Constraints struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	Video            bool
	DeviceID         string
}

// Passthrough returns audio-only constraints with all processing disabled.
func Passthrough() Constraints {
	return Constraints{}
}

// WantsProcessing reports whether any signal processing was requested.
func (c Constraints) WantsProcessing() bool {
	return c.EchoCancellation || c.NoiseSuppression || c.AutoGainControl
}

// Stream is a live audio source handle. Frames delivers interleaved float32
// samples until the stream is stopped, then the channel is closed. Stop
// releases every underlying track; only the first call has an effect.
type Stream interface {
	ID() string
	SampleRate() int
	Channels() int
	Frames() <-chan []float32
	Stop() error
}

// Source is the platform capture engine. Both requests may block on a
// permission decision and must honor ctx.
type Source interface {
	RequestDisplayAudio(ctx context.Context, c Constraints) (Stream, error)
	RequestMicrophoneAudio(ctx context.Context, c Constraints) (Stream, error)
}
