package recorder

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakwav/internal/artifact"
	"github.com/dgnsrekt/speakwav/internal/capture"
)

func newTestSession(unsupported bool) *Session {
	return NewSession(NewMockFactory(unsupported), "test", log.New(io.Discard))
}

// waitForChunks polls until the session has buffered n chunks.
func waitForChunks(t *testing.T, s *Session, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.chunkMu.Lock()
		got := len(s.chunks)
		s.chunkMu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d chunks", n)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestSession(false)
	stream := capture.NewMockStream(48000)

	if s.State() != StateIdle {
		t.Fatalf("initial State() = %v, want idle", s.State())
	}
	if err := s.Start(stream); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.State() != StateRecording || !s.Active() {
		t.Fatalf("State() = %v, want recording", s.State())
	}

	stream.Push([]float32{0.5})
	waitForChunks(t, s, 1)

	if err := s.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if s.State() != StatePaused {
		t.Errorf("State() = %v, want paused", s.State())
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	stream.Push([]float32{-0.5})
	waitForChunks(t, s, 2)

	a, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if a == nil || a.Kind != artifact.KindRecorded {
		t.Fatalf("Stop() artifact = %+v, want recorded artifact", a)
	}
	if a.MimeType != MockMimeType {
		t.Errorf("MimeType = %q, want %q", a.MimeType, MockMimeType)
	}
	if want := append(append(encodeFloats([]float32{0.5}), encodeFloats([]float32{-0.5})...), mockTrailer...); !bytes.Equal(a.Bytes, want) {
		t.Errorf("Bytes = %v, want %v", a.Bytes, want)
	}
	if s.State() != StateFinalized {
		t.Errorf("State() = %v, want finalized", s.State())
	}
	if !stream.Stopped() {
		t.Error("stream was not released")
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	s := newTestSession(false)
	stream := capture.NewMockStream(48000)
	if err := s.Start(stream); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	a, err := s.Stop()
	if a != nil || err != nil {
		t.Errorf("second Stop() = %v, %v, want nil, nil", a, err)
	}
	if stream.StopCalls() != 1 {
		t.Errorf("stream stopped %d times, want 1", stream.StopCalls())
	}
}

func TestSessionStopIdle(t *testing.T) {
	a, err := newTestSession(false).Stop()
	if a != nil || err != nil {
		t.Errorf("Stop() on idle session = %v, %v, want nil, nil", a, err)
	}
}

func TestSessionUnsupportedFormat(t *testing.T) {
	s := newTestSession(true)
	stream := capture.NewMockStream(44100)

	err := s.Start(stream)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Start() error = %v, want ErrUnsupportedFormat", err)
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v, want idle", s.State())
	}
	if !stream.Stopped() {
		t.Error("rejected stream was not released")
	}
}

func TestSessionInvalidTransitions(t *testing.T) {
	s := newTestSession(false)
	if err := s.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Pause() on idle = %v, want ErrInvalidState", err)
	}
	if err := s.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Resume() on idle = %v, want ErrInvalidState", err)
	}

	if err := s.Start(capture.NewMockStream(48000)); err != nil {
		t.Fatal(err)
	}
	if err := s.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Resume() while recording = %v, want ErrInvalidState", err)
	}
	if err := s.Start(capture.NewMockStream(48000)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Start() = %v, want ErrInvalidState", err)
	}
	s.Discard()
	if err := s.Start(capture.NewMockStream(48000)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Start() after Discard = %v, want ErrInvalidState", err)
	}
}

func TestSessionDiscard(t *testing.T) {
	s := newTestSession(false)
	stream := capture.NewMockStream(48000)
	if err := s.Start(stream); err != nil {
		t.Fatal(err)
	}
	s.Discard()

	if s.State() != StateFinalized {
		t.Errorf("State() = %v, want finalized", s.State())
	}
	if !stream.Stopped() {
		t.Error("stream was not released")
	}
	if a, err := s.Stop(); a != nil || err != nil {
		t.Errorf("Stop() after Discard = %v, %v", a, err)
	}
}
