package oggopus

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/speakwav/internal/capture"
	"github.com/dgnsrekt/speakwav/internal/recorder"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		rate int
		want bool
	}{
		{8000, true},
		{16000, true},
		{48000, true},
		{44100, false},
		{22050, false},
	}
	for _, tt := range tests {
		if got := Supported(capture.NewMockStream(tt.rate)); got != tt.want {
			t.Errorf("Supported(%d) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestFactoryRejectsUnsupportedRate(t *testing.T) {
	_, err := Factory(capture.NewMockStream(44100))
	if !errors.Is(err, recorder.ErrUnsupportedFormat) {
		t.Errorf("Factory() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRecordOggOpus(t *testing.T) {
	stream := capture.NewMockStream(48000)
	rec, err := Factory(stream)
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}

	var chunks [][]byte
	collect := func(b []byte) { chunks = append(chunks, b) }
	if err := rec.Start(stream, collect); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected Ogg header pages after Start")
	}
	if got := string(chunks[0][:4]); got != "OggS" {
		t.Errorf("first page magic = %q, want OggS", got)
	}

	// 50 ms of tone: two full frames plus a partial one flushed by Stop.
	samples := make([]float32, 2400)
	for i := range samples {
		samples[i] = 0.25
	}
	stream.Push(samples)

	headers := 2
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(chunks) <= headers {
		t.Errorf("got %d chunks, want audio pages after the %d headers", len(chunks), headers)
	}
	if rec.MimeType() != MimeType || rec.Extension() != Extension {
		t.Errorf("MimeType/Extension = %q/%q", rec.MimeType(), rec.Extension())
	}
	if err := rec.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
