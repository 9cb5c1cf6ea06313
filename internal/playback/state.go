package playback

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/speakwav/internal/artifact"
)

// State is the controller's playback state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StatePlaying
	StatePaused
	StateCompleted
	StateErrored
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Active reports whether an utterance is in flight.
func (s State) Active() bool {
	return s == StateRequesting || s == StatePlaying || s == StatePaused
}

// Strategy selects how the artifact of an attempt is produced.
type Strategy int

const (
	// StrategyCapture records real audio when a stream is granted and
	// synthesizes otherwise.
	StrategyCapture Strategy = iota
	// StrategySynthesize never captures.
	StrategySynthesize
	// StrategyExport never captures and produces a metadata bundle.
	StrategyExport
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyCapture:
		return "capture"
	case StrategySynthesize:
		return "synthesize"
	case StrategyExport:
		return "export"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name. Empty selects capture.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "capture", "record":
		return StrategyCapture, nil
	case "synthesize", "synth":
		return StrategySynthesize, nil
	case "export", "ssml":
		return StrategyExport, nil
	default:
		return StrategyCapture, fmt.Errorf("unknown strategy %q (want capture, synthesize or export)", s)
	}
}

// Fallback returns the artifact kind produced when nothing was recorded.
func (s Strategy) Fallback() artifact.Kind {
	if s == StrategyExport {
		return artifact.KindMetadataExport
	}
	return artifact.KindSynthesized
}
