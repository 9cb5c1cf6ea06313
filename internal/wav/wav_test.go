package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	goaudio "github.com/go-audio/wav"

	"github.com/dgnsrekt/speakwav/internal/pcm"
	"github.com/dgnsrekt/speakwav/internal/synth"
)

func TestEncodeHeader(t *testing.T) {
	buf := pcm.NewMono(22050, 100)
	out, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if len(out) != HeaderSize+200 {
		t.Fatalf("len(Encode()) = %d, want %d", len(out), HeaderSize+200)
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"chunk id", string(out[0:4]), "RIFF"},
		{"chunk size", le.Uint32(out[4:8]), uint32(236)},
		{"format", string(out[8:12]), "WAVE"},
		{"subchunk1 id", string(out[12:16]), "fmt "},
		{"subchunk1 size", le.Uint32(out[16:20]), uint32(16)},
		{"audio format", le.Uint16(out[20:22]), uint16(1)},
		{"channels", le.Uint16(out[22:24]), uint16(1)},
		{"sample rate", le.Uint32(out[24:28]), uint32(22050)},
		{"byte rate", le.Uint32(out[28:32]), uint32(44100)},
		{"block align", le.Uint16(out[32:34]), uint16(2)},
		{"bits per sample", le.Uint16(out[34:36]), uint16(16)},
		{"subchunk2 id", string(out[36:40]), "data"},
		{"subchunk2 size", le.Uint32(out[40:44]), uint32(200)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestEncodeSamples(t *testing.T) {
	buf := pcm.Buffer{
		SampleRate: 8000,
		Channels:   1,
		Samples:    []float32{0, 1, -1, 2, -3, 0.5, -0.5},
	}
	out, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []int16{0, 32767, -32767, 32767, -32767, 16383, -16383}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[HeaderSize+2*i:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	buf := synth.New(synth.Config{SampleRate: 16000}).Synthesize("determinism")

	a, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	b, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Encode() is not deterministic")
	}
}

func TestEncodePrecondition(t *testing.T) {
	tests := []struct {
		name string
		buf  pcm.Buffer
	}{
		{"stereo", pcm.Buffer{SampleRate: 8000, Channels: 2, Samples: []float32{0, 0}}},
		{"zero rate", pcm.Buffer{SampleRate: 0, Channels: 1}},
		{"negative rate", pcm.Buffer{SampleRate: -8000, Channels: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(tt.buf)
			if !errors.Is(err, ErrPrecondition) {
				t.Errorf("Encode() error = %v, want ErrPrecondition", err)
			}
			if out != nil {
				t.Errorf("Encode() returned %d bytes on error", len(out))
			}
		})
	}
}

// Decoding with an independent WAV parser recovers the format and every
// sample within one unit of the rounded original.
func TestRoundTripWithGoAudio(t *testing.T) {
	buf := synth.New(synth.Config{SampleRate: 11025}).Synthesize("Round trip through a standard parser")
	buf.Samples[0] = 1.7
	buf.Samples[1] = -4

	out, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	dec := goaudio.NewDecoder(bytes.NewReader(out))
	if !dec.IsValidFile() {
		t.Fatal("go-audio rejected the encoded file")
	}
	ib, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}

	if dec.SampleRate != 11025 {
		t.Errorf("SampleRate = %d, want 11025", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("NumChans = %d, want 1", dec.NumChans)
	}
	if len(ib.Data) != buf.Len() {
		t.Fatalf("decoded %d samples, want %d", len(ib.Data), buf.Len())
	}

	for i, v := range buf.Samples {
		want := math.Round(float64(pcm.Clamp(v)) * 32767)
		if diff := math.Abs(float64(ib.Data[i]) - want); diff > 1 {
			t.Fatalf("sample %d = %d, want %v (+-1)", i, ib.Data[i], want)
		}
	}
}

func TestDecode(t *testing.T) {
	buf := pcm.Buffer{SampleRate: 24000, Channels: 1, Samples: []float32{0.1, 0.2, 0.3}}
	out, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	h, data, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if h.SampleRate != 24000 || h.Channels != 1 || h.BitsPerSample != 16 || h.DataSize != 6 {
		t.Errorf("Decode() header = %+v", h)
	}
	if len(data) != 6 {
		t.Errorf("len(data) = %d, want 6", len(data))
	}

	for _, bad := range [][]byte{nil, out[:20], append([]byte("RIFX"), out[4:]...), out[:HeaderSize+2]} {
		if _, _, err := Decode(bad); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%d bytes) error = %v, want ErrMalformed", len(bad), err)
		}
	}
}
