package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/speakwav/internal/pcm"
	"github.com/dgnsrekt/speakwav/internal/wav"
)

func encodeTestWAV(t *testing.T, rate int, samples ...float32) []byte {
	t.Helper()
	buf := pcm.NewMono(rate, len(samples))
	copy(buf.Samples, samples)
	data, err := wav.Encode(buf)
	if err != nil {
		t.Fatalf("wav.Encode() error = %v", err)
	}
	return data
}

func TestPlayerConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    PlayerConfig
		expectErr bool
	}{
		{"default", DefaultPlayerConfig(), false},
		{"44100Hz", PlayerConfig{SampleRate: 44100}, false},
		{"invalid sample rate", PlayerConfig{SampleRate: 22050}, true},
		{"negative buffer", PlayerConfig{SampleRate: 48000, BufferSize: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if (err != nil) != tt.expectErr {
				t.Errorf("validateConfig() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestDecodeWAVSameRate(t *testing.T) {
	data := encodeTestWAV(t, 48000, 0, 0.5, -0.5, 1)

	clip, err := DecodeWAV(data, 48000)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if len(clip.Data) != 8 {
		t.Fatalf("len(Data) = %d, want 8", len(clip.Data))
	}
	want := []int16{0, 16383, -16383, 32767}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(clip.Data[2*i:]))
		if d := int(got) - int(w); d < -1 || d > 1 {
			t.Errorf("sample %d = %d, want %d (±1)", i, got, w)
		}
	}
}

func TestDecodeWAVCanonicalIsExact(t *testing.T) {
	data := encodeTestWAV(t, 44100, 0.25, -0.75, 0.5)

	clip, err := DecodeWAV(data, 44100)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if !bytes.Equal(clip.Data, data[wav.HeaderSize:]) {
		t.Errorf("Data = %v, want the encoded samples %v", clip.Data, data[wav.HeaderSize:])
	}
}

func TestDecodeWAVStereoUsesGenericDecoder(t *testing.T) {
	data := encodeTestWAV(t, 48000, 0, 0.5, -0.5, 1)
	// Reinterpret the four mono samples as two stereo frames.
	binary.LittleEndian.PutUint16(data[22:24], 2)
	binary.LittleEndian.PutUint32(data[28:32], 48000*4)
	binary.LittleEndian.PutUint16(data[32:34], 4)

	clip, err := DecodeWAV(data, 48000)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if len(clip.Data) != 4 {
		t.Fatalf("len(Data) = %d, want 4", len(clip.Data))
	}
	want := []int16{8191, 8192}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(clip.Data[2*i:]))
		if d := int(got) - int(w); d < -1 || d > 1 {
			t.Errorf("frame %d = %d, want %d (±1)", i, got, w)
		}
	}
}

func TestDecodeWAVResamples(t *testing.T) {
	samples := make([]float32, 8000)
	data := encodeTestWAV(t, 8000, samples...)

	clip, err := DecodeWAV(data, 48000)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if clip.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", clip.Duration)
	}
	if got := len(clip.Data) / 2; got != 48000 {
		t.Errorf("frames = %d, want 48000", got)
	}
}

func TestDecodeWAVRejectsOther(t *testing.T) {
	if _, err := DecodeWAV([]byte("OggS not a wav file at all, really not"), 48000); !errors.Is(err, ErrNotWAV) {
		t.Errorf("DecodeWAV() error = %v, want ErrNotWAV", err)
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{0, 1}, 1, 2)
	want := []float64{0, 0.5, 1, 1}
	if len(got) != len(want) {
		t.Fatalf("resample() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resample()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMockPlayerLifecycle(t *testing.T) {
	mp := NewMockPlayer(48000)
	data := encodeTestWAV(t, 48000, 0.1, 0.2)

	if err := mp.Play(data); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !mp.IsPlaying() {
		t.Error("IsPlaying() = false after Play")
	}
	if err := mp.Resume(); err == nil {
		t.Error("Resume() while playing should fail")
	}
	if err := mp.Pause(); err != nil {
		t.Errorf("Pause() error = %v", err)
	}
	if err := mp.Resume(); err != nil {
		t.Errorf("Resume() error = %v", err)
	}
	mp.Finish()
	if mp.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", mp.State())
	}
	if err := mp.Close(); err != nil {
		t.Fatal(err)
	}
	if err := mp.Play(data); !errors.Is(err, errClosed) {
		t.Errorf("Play() after Close = %v, want errClosed", err)
	}
	if mp.PlayCount() != 1 {
		t.Errorf("PlayCount() = %d, want 1", mp.PlayCount())
	}
}
