package recorder

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakwav/internal/artifact"
	"github.com/dgnsrekt/speakwav/internal/capture"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateIdle means no recording has started.
	StateIdle State = iota
	// StateRecording means chunks are being accumulated.
	StateRecording
	// StatePaused means the recorder is paused with the stream held.
	StatePaused
	// StateFinalized means the session is over; it cannot be restarted.
	StateFinalized
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Session records one playback attempt.
type Session struct {
	mu       sync.Mutex
	factory  Factory
	appName  string
	logger   *log.Logger
	now      func() time.Time
	state    State
	stream   capture.Stream
	recorder Recorder

	chunkMu sync.Mutex
	chunks  [][]byte
}

// NewSession creates an idle session.
func NewSession(factory Factory, appName string, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		factory: factory,
		appName: appName,
		logger:  logger.WithPrefix("recorder"),
		now:     time.Now,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the session is recording or paused.
func (s *Session) Active() bool {
	st := s.State()
	return st == StateRecording || st == StatePaused
}

// Start begins recording stream. If the platform cannot record it, the
// stream is released, the session stays idle and the error is returned.
func (s *Session) Start(stream capture.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidState, s.state)
	}

	s.chunkMu.Lock()
	s.chunks = nil
	s.chunkMu.Unlock()

	rec, err := s.factory(stream)
	if err == nil {
		err = rec.Start(stream, s.appendChunk)
	}
	if err != nil {
		s.logger.Error("Real audio recording setup failed", "stream", stream.ID(), "err", err)
		if stopErr := stream.Stop(); stopErr != nil {
			s.logger.Warn("Failed to release capture stream", "err", stopErr)
		}
		return err
	}

	s.stream = stream
	s.recorder = rec
	s.state = StateRecording
	s.logger.Debug("Real audio recording started", "stream", stream.ID(), "mime", rec.MimeType())
	return nil
}

func (s *Session) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	s.chunkMu.Lock()
	s.chunks = append(s.chunks, c)
	s.chunkMu.Unlock()
}

// Pause pauses the recorder. Only valid while recording.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("%w: pause from %s", ErrInvalidState, s.state)
	}
	if err := s.recorder.Pause(); err != nil {
		return fmt.Errorf("failed to pause recorder: %w", err)
	}
	s.state = StatePaused
	return nil
}

// Resume resumes the recorder. Only valid while paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidState, s.state)
	}
	if err := s.recorder.Resume(); err != nil {
		return fmt.Errorf("failed to resume recorder: %w", err)
	}
	s.state = StateRecording
	return nil
}

// Stop flushes the recorder, releases the stream and returns the recorded
// artifact. Calling Stop on an idle or finalized session releases nothing
// and returns nil.
func (s *Session) Stop() (*artifact.Artifact, error) {
	rec, stream, ok := s.finish()
	if !ok {
		return nil, nil
	}

	stopErr := rec.Stop()
	s.release(stream)

	s.chunkMu.Lock()
	data := bytes.Join(s.chunks, nil)
	s.chunks = nil
	s.chunkMu.Unlock()

	if stopErr != nil {
		return nil, fmt.Errorf("failed to stop recorder: %w", stopErr)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: recorder produced no data", ErrInvalidState)
	}

	s.logger.Debug("Recording finalized", "stream", stream.ID(), "bytes", len(data))
	return artifact.New(artifact.KindRecorded, data, rec.MimeType(), rec.Extension(), s.appName, s.now()), nil
}

// Discard stops the recorder and releases the stream without producing
// an artifact.
func (s *Session) Discard() {
	rec, stream, ok := s.finish()
	if !ok {
		return
	}
	if err := rec.Stop(); err != nil {
		s.logger.Warn("Failed to stop recorder", "err", err)
	}
	s.release(stream)

	s.chunkMu.Lock()
	s.chunks = nil
	s.chunkMu.Unlock()
}

// finish moves an active session to finalized and hands back what must be
// torn down. Teardown happens without holding mu because the recorder may
// still deliver chunks while it flushes.
func (s *Session) finish() (Recorder, capture.Stream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording && s.state != StatePaused {
		return nil, nil, false
	}
	s.state = StateFinalized
	rec, stream := s.recorder, s.stream
	s.recorder, s.stream = nil, nil
	return rec, stream, true
}

func (s *Session) release(stream capture.Stream) {
	if err := stream.Stop(); err != nil {
		s.logger.Warn("Failed to release capture stream", "stream", stream.ID(), "err", err)
	}
}
