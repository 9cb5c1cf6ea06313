package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockPlayer implements Previewer for tests. It decodes clips like Player
// but never opens a device.
type MockPlayer struct {
	mu         sync.Mutex
	state      PlayerState
	sampleRate int
	last       Clip

	// PlayErr, when set, is returned by Play.
	PlayErr error

	playCount atomic.Int64
	stopCount atomic.Int64
}

// NewMockPlayer creates a stopped mock player at sampleRate.
func NewMockPlayer(sampleRate int) *MockPlayer {
	return &MockPlayer{sampleRate: sampleRate}
}

func (mp *MockPlayer) Play(wavData []byte) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state == StateClosed {
		return errClosed
	}
	if mp.PlayErr != nil {
		return mp.PlayErr
	}
	clip, err := DecodeWAV(wavData, mp.sampleRate)
	if err != nil {
		return err
	}
	mp.last = clip
	mp.state = StatePlaying
	mp.playCount.Add(1)
	return nil
}

func (mp *MockPlayer) Pause() error {
	return mp.transition(StatePlaying, StatePaused)
}

func (mp *MockPlayer) Resume() error {
	return mp.transition(StatePaused, StatePlaying)
}

func (mp *MockPlayer) transition(from, to PlayerState) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state != from {
		return fmt.Errorf("cannot move to %s: player is %s", to, mp.state)
	}
	mp.state = to
	return nil
}

func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state == StateClosed {
		return nil
	}
	mp.stopCount.Add(1)
	mp.state = StateStopped
	return nil
}

// Finish simulates the clip playing to the end.
func (mp *MockPlayer) Finish() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state == StatePlaying || mp.state == StatePaused {
		mp.state = StateStopped
	}
}

func (mp *MockPlayer) IsPlaying() bool {
	return mp.State() == StatePlaying
}

func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.state == StateClosed {
		return errors.New("player already closed")
	}
	mp.state = StateClosed
	return nil
}

// State returns the current state.
func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// LastClip returns the most recently played clip.
func (mp *MockPlayer) LastClip() Clip {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.last
}

// PlayCount returns the number of successful Play calls.
func (mp *MockPlayer) PlayCount() int64 { return mp.playCount.Load() }

// StopCount returns the number of Stop calls.
func (mp *MockPlayer) StopCount() int64 { return mp.stopCount.Load() }
