package playback

import (
	"sync"

	"github.com/dgnsrekt/speakwav/internal/artifact"
)

// EventKind enumerates controller notifications.
type EventKind int

const (
	// EventStateChanged carries the new State.
	EventStateChanged EventKind = iota
	// EventRecording means real audio is being captured for the attempt.
	EventRecording
	// EventArtifact carries the new current artifact.
	EventArtifact
	// EventError carries a *Error.
	EventError
)

// String returns the string representation of the kind.
func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state"
	case EventRecording:
		return "recording"
	case EventArtifact:
		return "artifact"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers.
type Event struct {
	Kind     EventKind
	Attempt  string
	State    State
	Artifact *artifact.Artifact
	Err      error
}

// notifier delivers events to subscribers from its own goroutine, in
// publish order, so subscribers may call back into the controller.
type notifier struct {
	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
	queue  []Event
	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}
}

func newNotifier() *notifier {
	n := &notifier{
		subs:   make(map[int]func(Event)),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) publish(ev Event) {
	n.mu.Lock()
	n.queue = append(n.queue, ev)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) run() {
	defer close(n.exited)
	for {
		select {
		case <-n.wake:
			n.flush()
		case <-n.done:
			n.flush()
			return
		}
	}
}

func (n *notifier) flush() {
	for {
		n.mu.Lock()
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		ev := n.queue[0]
		n.queue = n.queue[1:]
		subs := make([]func(Event), 0, len(n.subs))
		for id := 0; id < n.nextID; id++ {
			if fn, ok := n.subs[id]; ok {
				subs = append(subs, fn)
			}
		}
		n.mu.Unlock()

		for _, fn := range subs {
			fn(ev)
		}
	}
}

func (n *notifier) close() {
	close(n.done)
	<-n.exited
}
