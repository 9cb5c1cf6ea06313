// Package recorder turns a live capture stream into a finished audio
// artifact. The Session owns the lifecycle; the Recorder it drives is the
// platform's compressed recording facility.
package recorder

import (
	"errors"

	"github.com/dgnsrekt/speakwav/internal/capture"
)

var (
	// ErrUnsupportedFormat is returned by a Factory that cannot record a stream.
	ErrUnsupportedFormat = errors.New("recorder: unsupported stream format")

	// ErrInvalidState is returned for lifecycle calls made in the wrong state.
	ErrInvalidState = errors.New("recorder: invalid state")
)

// Recorder encodes a stream into compressed chunks. Start begins delivering
// chunks to onChunk from a recorder goroutine. Stop must flush every
// pending chunk before it returns and must not call onChunk afterwards.
type Recorder interface {
	Start(stream capture.Stream, onChunk func([]byte)) error
	Pause() error
	Resume() error
	Stop() error
	MimeType() string
	Extension() string
}

// Factory builds a Recorder for a stream, or fails with ErrUnsupportedFormat.
type Factory func(stream capture.Stream) (Recorder, error)
