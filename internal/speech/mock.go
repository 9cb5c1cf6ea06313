package speech

import (
	"errors"
	"sync"
)

// MockEngine is a scripted engine for tests. Nothing is spoken; tests drive
// the lifecycle with Start, End and Fail.
type MockEngine struct {
	mu       sync.Mutex
	handler  Handler
	current  Request
	speaking bool
	requests []Request

	// SpeakErr, when set, is returned by Speak.
	SpeakErr error
	// VoiceList is returned by Voices.
	VoiceList []Voice

	pauses  int
	resumes int
	cancels int
}

// NewMockEngine creates a mock engine with the given voices.
func NewMockEngine(voices ...Voice) *MockEngine {
	return &MockEngine{VoiceList: voices}
}

func (m *MockEngine) Speak(req Request, handler Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SpeakErr != nil {
		return m.SpeakErr
	}
	m.requests = append(m.requests, req)
	m.current = req
	m.handler = handler
	m.speaking = true
	return nil
}

func (m *MockEngine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.speaking {
		return ErrNotSpeaking
	}
	m.pauses++
	return nil
}

func (m *MockEngine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.speaking {
		return ErrNotSpeaking
	}
	m.resumes++
	return nil
}

func (m *MockEngine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
	m.speaking = false
}

func (m *MockEngine) Voices() ([]Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VoiceList == nil {
		return nil, errors.New("no voices")
	}
	return m.VoiceList, nil
}

// Start reports that the current utterance began speaking.
func (m *MockEngine) Start() { m.fire(Event{Kind: EventStarted}, false) }

// End reports that the current utterance finished.
func (m *MockEngine) End() { m.fire(Event{Kind: EventEnded}, true) }

// Fail reports a speech error with code.
func (m *MockEngine) Fail(code string) {
	m.fire(Event{Kind: EventError, Code: code, Err: errors.New(code)}, true)
}

// FireFor delivers ev for an arbitrary utterance ID, as a late event from a
// canceled utterance would be.
func (m *MockEngine) FireFor(id string, kind EventKind) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		h(Event{Kind: kind, UtteranceID: id})
	}
}

func (m *MockEngine) fire(ev Event, terminal bool) {
	m.mu.Lock()
	h := m.handler
	ev.UtteranceID = m.current.ID
	if terminal {
		m.speaking = false
	}
	m.mu.Unlock()

	if h != nil {
		h(ev)
	}
}

// Requests returns every request passed to Speak.
func (m *MockEngine) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Current returns the most recent request.
func (m *MockEngine) Current() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Counts returns how often Pause, Resume and Cancel were called.
func (m *MockEngine) Counts() (pauses, resumes, cancels int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses, m.resumes, m.cancels
}
