package portaudio

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/speakwav/internal/capture"
)

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Monitor of Built-in Audio Analog Stereo", true},
		{"BlackHole 2ch", true},
		{"Stereo Mix (Realtek Audio)", true},
		{"MacBook Pro Microphone", false},
		{"USB Headset", false},
	}
	for _, tt := range tests {
		if got := isLoopback(tt.name); got != tt.want {
			t.Errorf("isLoopback(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCheckConstraints(t *testing.T) {
	if err := checkConstraints(capture.Passthrough()); err != nil {
		t.Errorf("checkConstraints(passthrough) = %v", err)
	}
	for _, c := range []capture.Constraints{
		{EchoCancellation: true},
		{NoiseSuppression: true},
		{AutoGainControl: true},
		{Video: true},
	} {
		if err := checkConstraints(c); !errors.Is(err, capture.ErrNotSupported) {
			t.Errorf("checkConstraints(%+v) = %v, want ErrNotSupported", c, err)
		}
	}
}

func TestDeviceNotFound(t *testing.T) {
	tests := []struct {
		available []string
		want      string
	}{
		{nil, "device not found: Loopback"},
		{[]string{"Mic", "Monitor of Speakers"}, "device not found: Loopback (available: Mic, Monitor of Speakers)"},
	}
	for _, tt := range tests {
		err := deviceNotFound("Loopback", tt.available)
		if !errors.Is(err, capture.ErrNotSupported) {
			t.Errorf("deviceNotFound() = %v, want ErrNotSupported", err)
		}
		if !strings.HasSuffix(err.Error(), tt.want) {
			t.Errorf("deviceNotFound() = %q, want suffix %q", err, tt.want)
		}
	}
}
