package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// MockStream is an in-memory stream for tests and demos. Samples written
// with Push are delivered on Frames.
type MockStream struct {
	id         string
	sampleRate int
	channels   int
	frames     chan []float32

	mu        sync.Mutex
	stopCount atomic.Int64
	stopped   bool
}

// NewMockStream creates a mono stream at sampleRate.
func NewMockStream(sampleRate int) *MockStream {
	return &MockStream{
		id:         uuid.NewString(),
		sampleRate: sampleRate,
		channels:   1,
		frames:     make(chan []float32, 64),
	}
}

func (s *MockStream) ID() string               { return s.id }
func (s *MockStream) SampleRate() int          { return s.sampleRate }
func (s *MockStream) Channels() int            { return s.channels }
func (s *MockStream) Frames() <-chan []float32 { return s.frames }

// Push delivers samples unless the stream is stopped or its buffer is full.
func (s *MockStream) Push(samples []float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	select {
	case s.frames <- samples:
		return true
	default:
		return false
	}
}

// Stop closes the frame channel once.
func (s *MockStream) Stop() error {
	s.stopCount.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.frames)
	}
	return nil
}

// Stopped reports whether Stop was called.
func (s *MockStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// StopCalls returns how many times Stop was invoked.
func (s *MockStream) StopCalls() int64 {
	return s.stopCount.Load()
}

// MockResult is what a MockSource returns for one kind of request.
type MockResult struct {
	Stream Stream
	Err    error
	// Gate, when set, blocks the request until it is closed or ctx ends.
	Gate <-chan struct{}
}

// MockSource is a scripted capture engine.
type MockSource struct {
	mu         sync.Mutex
	Display    MockResult
	Microphone MockResult
	Requests   []Constraints
}

// NewUnavailableSource returns a source that denies every request.
func NewUnavailableSource() *MockSource {
	return &MockSource{
		Display:    MockResult{Err: ErrPermissionDenied},
		Microphone: MockResult{Err: ErrNotSupported},
	}
}

func (m *MockSource) RequestDisplayAudio(ctx context.Context, c Constraints) (Stream, error) {
	return m.request(ctx, c, func() MockResult { return m.Display })
}

func (m *MockSource) RequestMicrophoneAudio(ctx context.Context, c Constraints) (Stream, error) {
	return m.request(ctx, c, func() MockResult { return m.Microphone })
}

func (m *MockSource) request(ctx context.Context, c Constraints, pick func() MockResult) (Stream, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, c)
	r := pick()
	m.mu.Unlock()

	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Stream == nil {
		return nil, ErrNotSupported
	}
	return r.Stream, nil
}

// RequestCount returns the number of requests received.
func (m *MockSource) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
