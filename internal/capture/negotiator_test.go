package capture

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestAcquireDisplayFirst(t *testing.T) {
	display := NewMockStream(48000)
	src := &MockSource{
		Display:    MockResult{Stream: display},
		Microphone: MockResult{Stream: NewMockStream(16000)},
	}

	got, err := NewNegotiator(src, "", quietLogger()).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got != display {
		t.Errorf("Acquire() = %v, want display stream", got.ID())
	}
	if src.RequestCount() != 1 {
		t.Errorf("RequestCount() = %d, want 1", src.RequestCount())
	}
	if src.Requests[0].WantsProcessing() || src.Requests[0].Video {
		t.Errorf("display constraints = %+v, want passthrough audio only", src.Requests[0])
	}
}

func TestAcquireFallsBackToMicrophone(t *testing.T) {
	mic := NewMockStream(16000)
	src := &MockSource{
		Display:    MockResult{Err: ErrPermissionDenied},
		Microphone: MockResult{Stream: mic},
	}

	got, err := NewNegotiator(src, "", quietLogger()).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got != mic {
		t.Error("Acquire() did not return the microphone stream")
	}
	if src.Requests[1].DeviceID != DefaultDevice {
		t.Errorf("microphone DeviceID = %q, want %q", src.Requests[1].DeviceID, DefaultDevice)
	}
	if src.Requests[1].WantsProcessing() {
		t.Errorf("microphone constraints = %+v, want processing disabled", src.Requests[1])
	}
}

func TestAcquireUnavailable(t *testing.T) {
	got, err := NewNegotiator(NewUnavailableSource(), "", quietLogger()).Acquire(context.Background())
	if got != nil {
		t.Errorf("Acquire() = %v, want nil", got)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Acquire() error = %v, want ErrUnavailable", err)
	}
	if !errors.Is(err, ErrPermissionDenied) || !errors.Is(err, ErrNotSupported) {
		t.Errorf("Acquire() error = %v, want both causes joined", err)
	}
}

func TestAcquireNilSource(t *testing.T) {
	if _, err := NewNegotiator(nil, "", quietLogger()).Acquire(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Acquire() error = %v, want ErrUnavailable", err)
	}
}

func TestAcquireCanceledWhileWaiting(t *testing.T) {
	gate := make(chan struct{})
	src := &MockSource{Display: MockResult{Stream: NewMockStream(48000), Gate: gate}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := NewNegotiator(src, "", quietLogger()).Acquire(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire() did not return after cancel")
	}
}

func TestMockStreamStopIdempotent(t *testing.T) {
	s := NewMockStream(8000)
	if !s.Push([]float32{0.1}) {
		t.Fatal("Push() before Stop = false")
	}
	_ = s.Stop()
	_ = s.Stop()
	if !s.Stopped() || s.StopCalls() != 2 {
		t.Errorf("Stopped() = %v, StopCalls() = %d", s.Stopped(), s.StopCalls())
	}
	if s.Push([]float32{0.2}) {
		t.Error("Push() after Stop = true")
	}
}
