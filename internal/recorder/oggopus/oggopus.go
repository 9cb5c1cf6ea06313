// Package oggopus records capture streams as Opus in an Ogg container.
package oggopus

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"

	"github.com/dgnsrekt/speakwav/internal/capture"
	"github.com/dgnsrekt/speakwav/internal/recorder"
)

const (
	// MimeType is the content type of recorded artifacts.
	MimeType = "audio/ogg; codecs=opus"

	// Extension is the file extension of recorded artifacts.
	Extension = "ogg"

	frameDuration = 20 // ms
	// Ogg Opus granule positions always count 48 kHz samples.
	granuleRate     = 48000
	granulePerFrame = granuleRate * frameDuration / 1000
	payloadType     = 111
	maxPacketSize   = 4000
)

// supportedRates are the sample rates libopus accepts.
var supportedRates = map[int]bool{8000: true, 12000: true, 16000: true, 24000: true, 48000: true}

// Supported reports whether a stream can be recorded.
func Supported(stream capture.Stream) bool {
	ch := stream.Channels()
	return supportedRates[stream.SampleRate()] && (ch == 1 || ch == 2)
}

// Factory builds Opus recorders. It is a recorder.Factory.
func Factory(stream capture.Stream) (recorder.Recorder, error) {
	if !Supported(stream) {
		return nil, fmt.Errorf("%w: %d Hz, %d channels", recorder.ErrUnsupportedFormat, stream.SampleRate(), stream.Channels())
	}
	enc, err := opus.NewEncoder(stream.SampleRate(), stream.Channels(), opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recorder.ErrUnsupportedFormat, err)
	}
	return &Recorder{
		enc:       enc,
		rate:      stream.SampleRate(),
		channels:  stream.Channels(),
		frameSize: stream.SampleRate() * frameDuration / 1000 * stream.Channels(),
	}, nil
}

// chunkWriter forwards every Ogg page to the chunk callback.
type chunkWriter func([]byte)

func (w chunkWriter) Write(p []byte) (int, error) {
	c := make([]byte, len(p))
	copy(c, p)
	w(c)
	return len(p), nil
}

// Recorder encodes 20 ms frames and emits one chunk per Ogg page.
type Recorder struct {
	enc       *opus.Encoder
	rate      int
	channels  int
	frameSize int

	mu      sync.Mutex
	ogg     *oggwriter.OggWriter
	pending []float32
	packet  []byte
	seq     uint16
	ts      uint32
	ssrc    uint32
	paused  bool
	started bool
	stopped bool
	err     error

	done chan struct{}
	wg   sync.WaitGroup
}

func (r *Recorder) Start(stream capture.Stream, onChunk func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("%w: already started", recorder.ErrInvalidState)
	}
	ogg, err := oggwriter.NewWith(chunkWriter(onChunk), uint32(r.rate), uint16(r.channels))
	if err != nil {
		return fmt.Errorf("failed to create ogg writer: %w", err)
	}
	r.ogg = ogg
	r.packet = make([]byte, maxPacketSize)
	r.ssrc = rand.Uint32()
	r.started = true
	r.done = make(chan struct{})

	r.wg.Add(1)
	go r.loop(stream.Frames())
	return nil
}

func (r *Recorder) loop(frames <-chan []float32) {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			r.drain(frames)
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			r.consume(f)
		}
	}
}

// drain consumes frames already buffered on the stream.
func (r *Recorder) drain(frames <-chan []float32) {
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return
			}
			r.consume(f)
		default:
			return
		}
	}
}

func (r *Recorder) consume(f []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.paused {
		r.write(f)
	}
}

// write buffers samples and encodes every complete frame. Callers hold mu.
func (r *Recorder) write(samples []float32) {
	r.pending = append(r.pending, samples...)
	for len(r.pending) >= r.frameSize {
		r.encode(r.pending[:r.frameSize])
		r.pending = r.pending[r.frameSize:]
	}
}

func (r *Recorder) encode(frame []float32) {
	if r.err != nil {
		return
	}
	n, err := r.enc.EncodeFloat32(frame, r.packet)
	if err != nil {
		r.err = fmt.Errorf("opus encode: %w", err)
		return
	}
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    payloadType,
			SequenceNumber: r.seq,
			Timestamp:      r.ts,
			SSRC:           r.ssrc,
		},
		Payload: append([]byte(nil), r.packet[:n]...),
	}
	r.seq++
	r.ts += granulePerFrame
	if err := r.ogg.WriteRTP(pkt); err != nil {
		r.err = fmt.Errorf("ogg write: %w", err)
	}
}

// Pause drops incoming frames until Resume.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
	return nil
}

func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
	return nil
}

// Stop encodes any partial frame padded with silence and closes the
// container. Repeated calls are no-ops.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) > 0 {
		frame := make([]float32, r.frameSize)
		copy(frame, r.pending)
		r.encode(frame)
		r.pending = nil
	}
	return errors.Join(r.err, r.ogg.Close())
}

func (r *Recorder) MimeType() string  { return MimeType }
func (r *Recorder) Extension() string { return Extension }
