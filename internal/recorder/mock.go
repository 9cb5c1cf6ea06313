package recorder

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/speakwav/internal/capture"
)

// MockMimeType is the content type reported by MockRecorder.
const MockMimeType = "audio/x-mock"

// mockTrailer is the final chunk flushed by Stop.
var mockTrailer = []byte("EOS")

// MockRecorder encodes each frame as raw little-endian float32 bytes. It
// is used by tests and by the synthetic demo mode.
type MockRecorder struct {
	mu      sync.Mutex
	onChunk func([]byte)
	done    chan struct{}
	wg      sync.WaitGroup
	paused  atomic.Bool
	started bool
	stopped bool

	pauseCount  atomic.Int64
	resumeCount atomic.Int64
}

// NewMockFactory returns a Factory producing MockRecorders, or one that
// rejects every stream when unsupported is true.
func NewMockFactory(unsupported bool) Factory {
	return func(capture.Stream) (Recorder, error) {
		if unsupported {
			return nil, ErrUnsupportedFormat
		}
		return &MockRecorder{}, nil
	}
}

func (m *MockRecorder) Start(stream capture.Stream, onChunk func([]byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("mock recorder already started")
	}
	m.started = true
	m.onChunk = onChunk
	m.done = make(chan struct{})

	m.wg.Add(1)
	go m.loop(stream.Frames())
	return nil
}

func (m *MockRecorder) loop(frames <-chan []float32) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			for {
				select {
				case f, ok := <-frames:
					if !ok {
						return
					}
					m.emit(f)
				default:
					return
				}
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			m.emit(f)
		}
	}
}

func (m *MockRecorder) emit(f []float32) {
	if !m.paused.Load() {
		m.onChunk(encodeFloats(f))
	}
}

func (m *MockRecorder) Pause() error {
	m.pauseCount.Add(1)
	m.paused.Store(true)
	return nil
}

func (m *MockRecorder) Resume() error {
	m.resumeCount.Add(1)
	m.paused.Store(false)
	return nil
}

// Stop ends the loop and flushes a trailer chunk. Repeated calls are no-ops.
func (m *MockRecorder) Stop() error {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()
	m.onChunk(mockTrailer)
	return nil
}

func (m *MockRecorder) MimeType() string  { return MockMimeType }
func (m *MockRecorder) Extension() string { return "raw" }

// PauseCalls returns how many times Pause was invoked.
func (m *MockRecorder) PauseCalls() int64 { return m.pauseCount.Load() }

// ResumeCalls returns how many times Resume was invoked.
func (m *MockRecorder) ResumeCalls() int64 { return m.resumeCount.Load() }

func encodeFloats(f []float32) []byte {
	out := make([]byte, 4*len(f))
	for i, v := range f {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}
