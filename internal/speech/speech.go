// Package speech defines the platform speech engine the playback controller
// drives, plus helpers for choosing voices.
package speech

import (
	"errors"
)

var (
	// ErrEngineUnavailable is returned when no speech binary can be found.
	ErrEngineUnavailable = errors.New("speech engine unavailable")

	// ErrNotSpeaking is returned by Pause and Resume with nothing in flight.
	ErrNotSpeaking = errors.New("no utterance in flight")

	// ErrPauseUnsupported is returned where the engine cannot suspend speech.
	ErrPauseUnsupported = errors.New("pause not supported on this platform")
)

// Error codes reported with EventError.
const (
	CodeInterrupted     = "interrupted"
	CodeSynthesisFailed = "synthesis-failed"
)

// Request is one utterance.
type Request struct {
	// ID identifies the utterance in every event it produces.
	ID          string
	Text        string
	LanguageTag string
	VoiceID     string
	Rate        float64
	Pitch       float64
	Volume      float64
}

// DefaultRequest returns a request with neutral prosody.
func DefaultRequest(text, lang string) Request {
	return Request{
		Text:        text,
		LanguageTag: lang,
		Rate:        1,
		Pitch:       1,
		Volume:      1,
	}
}

// EventKind enumerates engine lifecycle events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventPaused
	EventResumed
	EventEnded
	EventError
)

// String returns the string representation of the kind.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to the Handler registered with Speak.
type Event struct {
	Kind        EventKind
	UtteranceID string
	// Code is set for EventError and passed through to the user unchanged.
	Code string
	Err  error
}

// Handler receives engine events. Engines invoke it from their own
// goroutines, in order, and never from inside an Engine method call.
type Handler func(Event)

// Voice is an installed voice.
type Voice struct {
	ID      string
	Name    string
	Lang    string
	Default bool
}

// Engine is the platform speech facility. Speak replaces any utterance in
// flight. Pause, Resume and Cancel act on the current utterance.
type Engine interface {
	Speak(req Request, handler Handler) error
	Pause() error
	Resume() error
	Cancel()
	Voices() ([]Voice, error)
}
