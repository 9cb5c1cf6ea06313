package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// DefaultDevice names the host's default input device.
const DefaultDevice = "default"

// Negotiator tries display audio capture first and microphone capture second.
type Negotiator struct {
	source Source
	device string
	logger *log.Logger
}

// NewNegotiator creates a negotiator over source. An empty device selects
// the default input for the microphone attempt.
func NewNegotiator(source Source, device string, logger *log.Logger) *Negotiator {
	if device == "" {
		device = DefaultDevice
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Negotiator{
		source: source,
		device: device,
		logger: logger.WithPrefix("capture"),
	}
}

// Acquire returns a live stream, or nil and an error wrapping ErrUnavailable
// when both attempts fail. It returns ctx.Err() if canceled while waiting.
func (n *Negotiator) Acquire(ctx context.Context) (Stream, error) {
	if n.source == nil {
		return nil, fmt.Errorf("%w: no capture source", ErrUnavailable)
	}

	display, err := n.source.RequestDisplayAudio(ctx, Passthrough())
	if err == nil && display != nil {
		n.logger.Debug("Display audio capture granted", "stream", display.ID())
		return display, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		err = ErrNotSupported
	}
	n.logger.Debug("Display audio capture failed", "err", err)

	mic := Passthrough()
	mic.DeviceID = n.device
	stream, micErr := n.source.RequestMicrophoneAudio(ctx, mic)
	if micErr == nil && stream != nil {
		n.logger.Debug("Microphone capture granted", "stream", stream.ID(), "device", n.device)
		return stream, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if micErr == nil {
		micErr = ErrNotSupported
	}

	n.logger.Info("Desktop audio capture not available", "display", err, "microphone", micErr)
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(err, micErr))
}
