package synth

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestFramesFloor(t *testing.T) {
	s := New(Config{SampleRate: 8000})

	for _, n := range []int{0, 1, 11, 19, 20} {
		text := strings.Repeat("a", n)
		if got := s.Frames(text); got != 8000 {
			t.Errorf("Frames(%d chars) = %d, want 8000", n, got)
		}
	}
}

func TestFramesMonotonic(t *testing.T) {
	s := New(Config{SampleRate: 22050})

	prev := 0
	for n := 20; n <= 3000; n += 7 {
		got := s.Frames(strings.Repeat("x", n))
		if got < prev {
			t.Fatalf("Frames(%d chars) = %d, shorter than previous %d", n, got, prev)
		}
		prev = got
	}
}

func TestFramesCountsRunes(t *testing.T) {
	s := New(Config{SampleRate: 1000})

	// 40 runes, 80 bytes.
	text := strings.Repeat("é", 40)
	if got := s.Frames(text); got != 2000 {
		t.Errorf("Frames() = %d, want 2000", got)
	}
}

func TestSynthesize(t *testing.T) {
	s := New(Config{SampleRate: 16000})
	buf := s.Synthesize("Hello world")

	if buf.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", buf.SampleRate)
	}
	if buf.Channels != 1 {
		t.Errorf("Channels = %d, want 1", buf.Channels)
	}
	if buf.Len() != 16000 {
		t.Errorf("Len() = %d, want 16000", buf.Len())
	}
	if buf.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", buf.Duration())
	}

	var peak float64
	for _, v := range buf.Samples {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 {
		t.Fatal("Synthesize() produced silence")
	}
	// 0.45 * 1.1 * 0.8 bounds the waveform.
	if peak > 0.396+1e-6 {
		t.Errorf("peak amplitude = %v, want <= 0.396", peak)
	}
}

func TestSynthesizeFormula(t *testing.T) {
	s := New(Config{SampleRate: 1000})
	buf := s.Synthesize("")

	i := 123
	tt := float64(i) / 1000
	f := 150 + 50*math.Sin(2*tt)
	want := (0.3*math.Sin(2*math.Pi*f*tt) + 0.1*math.Sin(4*math.Pi*f*tt) + 0.05*math.Sin(6*math.Pi*f*tt)) *
		(1 + 0.1*math.Sin(10*tt)) * 0.8

	if got := float64(buf.Samples[i]); math.Abs(got-want) > 1e-6 {
		t.Errorf("sample %d = %v, want %v", i, got, want)
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{})
	if s.SampleRate() != DefaultSampleRate {
		t.Errorf("SampleRate() = %d, want %d", s.SampleRate(), DefaultSampleRate)
	}
	if got := s.Duration(strings.Repeat("a", 100)); math.Abs(got-5) > 1e-9 {
		t.Errorf("Duration(100 chars) = %v, want 5", got)
	}
}
