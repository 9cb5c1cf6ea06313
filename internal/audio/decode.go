package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	goaudio "github.com/go-audio/wav"

	"github.com/dgnsrekt/speakwav/internal/wav"
)

// ErrNotWAV is returned for payloads that are not RIFF/WAVE PCM.
var ErrNotWAV = errors.New("audio: not a PCM WAV file")

// Clip is decoded preview audio: mono signed 16-bit little-endian samples
// at SampleRate.
type Clip struct {
	Data       []byte
	SampleRate int
	Duration   time.Duration
}

// DecodeWAV decodes a WAV payload, mixes it down to mono and resamples it
// to targetRate. Canonical mono files as written by wav.Encode are read
// directly; anything else goes through the generic decoder.
func DecodeWAV(data []byte, targetRate int) (Clip, error) {
	if targetRate <= 0 {
		return Clip{}, fmt.Errorf("invalid target rate %d", targetRate)
	}

	h, samples, err := wav.Decode(data)
	if err == nil && h.Channels == 1 && h.SampleRate == targetRate {
		return newClip(bytes.Clone(samples), targetRate), nil
	}

	var mono []float64
	var rate int
	if err == nil && h.Channels == 1 {
		mono, rate = canonicalMono(samples), h.SampleRate
	} else {
		mono, rate, err = decodeGeneric(data)
		if err != nil {
			return Clip{}, err
		}
	}

	out := resample(mono, rate, targetRate)
	pcm := make([]byte, 2*len(out))
	for i, v := range out {
		v = math.Max(-1, math.Min(1, v))
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return newClip(pcm, targetRate), nil
}

func newClip(pcm []byte, rate int) Clip {
	frames := len(pcm) / 2
	return Clip{
		Data:       pcm,
		SampleRate: rate,
		Duration:   time.Duration(frames) * time.Second / time.Duration(rate),
	}
}

func canonicalMono(samples []byte) []float64 {
	mono := make([]float64, len(samples)/2)
	for i := range mono {
		mono[i] = float64(int16(binary.LittleEndian.Uint16(samples[2*i:]))) / -math.MinInt16
	}
	return mono
}

func decodeGeneric(data []byte) ([]float64, int, error) {
	d := goaudio.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, 0, ErrNotWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("%w: missing format", ErrNotWAV)
	}

	channels := buf.Format.NumChannels
	full := math.Exp2(float64(d.BitDepth) - 1)
	frames := len(buf.Data) / channels
	mono := make([]float64, frames)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / full
	}
	return mono, buf.Format.SampleRate, nil
}

// resample converts between rates with linear interpolation.
func resample(in []float64, from, to int) []float64 {
	if from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]float64, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
