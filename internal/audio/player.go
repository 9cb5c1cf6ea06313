package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Previewer plays WAV artifacts.
type Previewer interface {
	Play(wavData []byte) error
	Pause() error
	Resume() error
	Stop() error
	IsPlaying() bool
	Close() error
}

// PlayerState represents the current state of the player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

// String returns the string representation of the state.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var errClosed = errors.New("player is closed")

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 48000,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(config PlayerConfig) error {
	// oto only supports specific sample rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// Player previews artifacts through oto. oto allows one context per
// process, so a Player should be created once and reused.
type Player struct {
	context    *oto.Context
	sampleRate int

	state atomic.Int32

	mu     sync.Mutex
	player *oto.Player
	// clip keeps the PCM referenced for as long as oto reads from it.
	clip *Clip
}

// NewPlayer opens the output device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	p := &Player{context: ctx, sampleRate: config.SampleRate}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Play decodes wavData and starts playing it, replacing any clip in
// progress.
func (p *Player) Play(wavData []byte) error {
	if p.State() == StateClosed {
		return errClosed
	}
	clip, err := DecodeWAV(wavData, p.sampleRate)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.clip = &clip
	p.player = p.context.NewPlayer(bytes.NewReader(clip.Data))
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Pause pauses the current clip.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StatePlaying || p.player == nil {
		return fmt.Errorf("cannot pause: player is %s", p.State())
	}
	p.player.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// Resume resumes a paused clip.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StatePaused || p.player == nil {
		return fmt.Errorf("cannot resume: player is %s", p.State())
	}
	p.player.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Stop stops playback and drops the clip.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		_ = p.player.Close()
		p.player = nil
	}
	p.clip = nil
	if p.State() != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// IsPlaying reports whether a clip is audible right now.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.State() == StatePlaying && p.player != nil && p.player.IsPlaying()
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Close stops playback. The oto context itself lives until process exit.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}
