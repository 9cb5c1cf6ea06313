// Package status carries user-facing messages. Errors stay on screen until
// replaced; everything else clears itself after a delay.
package status

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultClearAfter is how long non-error messages stay visible.
const DefaultClearAfter = 5 * time.Second

// Severity classifies a message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is one status line.
type Message struct {
	Text     string
	Severity Severity
	At       time.Time
}

// Reporter accepts status messages.
type Reporter interface {
	Report(sev Severity, text string)
}

// Board holds the current message.
type Board struct {
	mu         sync.Mutex
	clearAfter time.Duration
	current    Message
	visible    bool
	seq        uint64
	timer      *time.Timer
	onChange   func(Message, bool)
}

// NewBoard creates an empty board. A zero clearAfter uses DefaultClearAfter.
func NewBoard(clearAfter time.Duration) *Board {
	if clearAfter <= 0 {
		clearAfter = DefaultClearAfter
	}
	return &Board{clearAfter: clearAfter}
}

// OnChange registers fn to run after every change, outside the board lock.
// The bool is false when the board was cleared.
func (b *Board) OnChange(fn func(Message, bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Report replaces the current message.
func (b *Board) Report(sev Severity, text string) {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.seq++
	seq := b.seq
	b.current = Message{Text: text, Severity: sev, At: time.Now()}
	b.visible = true
	if sev != SeverityError {
		b.timer = time.AfterFunc(b.clearAfter, func() { b.expire(seq) })
	}
	msg, fn := b.current, b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(msg, true)
	}
}

func (b *Board) expire(seq uint64) {
	b.mu.Lock()
	if b.seq != seq || !b.visible {
		b.mu.Unlock()
		return
	}
	b.visible = false
	b.timer = nil
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(Message{}, false)
	}
}

// Clear removes the current message.
func (b *Board) Clear() {
	b.mu.Lock()
	b.seq++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	was := b.visible
	b.visible = false
	fn := b.onChange
	b.mu.Unlock()

	if was && fn != nil {
		fn(Message{}, false)
	}
}

// Current returns the visible message, if any.
func (b *Board) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.visible
}

// LogReporter writes messages to a logger.
type LogReporter struct {
	Logger *log.Logger
}

func (r LogReporter) Report(sev Severity, text string) {
	l := r.Logger
	if l == nil {
		l = log.Default()
	}
	switch sev {
	case SeverityError:
		l.Error(text)
	case SeveritySuccess:
		l.Info(text, "status", sev)
	default:
		l.Info(text)
	}
}

// Multi fans a message out to several reporters.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

type multi []Reporter

func (m multi) Report(sev Severity, text string) {
	for _, r := range m {
		if r != nil {
			r.Report(sev, text)
		}
	}
}

// Recorder keeps every message it receives. It is useful in tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Report(sev Severity, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: text, Severity: sev, At: time.Now()})
}

// Messages returns a copy of the received messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
