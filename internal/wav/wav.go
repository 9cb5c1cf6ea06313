// Package wav encodes mono float PCM into canonical 16-bit RIFF/WAVE files.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgnsrekt/speakwav/internal/pcm"
)

const (
	// HeaderSize is the size of the canonical header in bytes.
	HeaderSize = 44

	// FormatPCM is the audio format code for integer PCM.
	FormatPCM = 1

	// BitsPerSample is the only bit depth produced.
	BitsPerSample = 16

	// MimeType is the content type of encoded files.
	MimeType = "audio/wav"
)

var (
	// ErrPrecondition is returned when Encode receives a malformed buffer.
	ErrPrecondition = errors.New("wav: encoder precondition violated")

	// ErrMalformed is returned by Decode for data that is not canonical WAV.
	ErrMalformed = errors.New("wav: malformed data")
)

// Encode serializes buf as a 44-byte header followed by little-endian
// int16 samples. Samples are clamped to [-1, 1] and scaled by 32767.
func Encode(buf pcm.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
	}

	dataSize := buf.Len() * 2
	out := make([]byte, HeaderSize+dataSize)
	writeHeader(out[:HeaderSize], buf.SampleRate, dataSize)

	le := binary.LittleEndian
	offset := HeaderSize
	for _, s := range buf.Samples {
		le.PutUint16(out[offset:], uint16(int16(pcm.Clamp(s)*0x7FFF)))
		offset += 2
	}

	return out, nil
}

func writeHeader(h []byte, sampleRate, dataSize int) {
	le := binary.LittleEndian

	copy(h[0:4], "RIFF")
	le.PutUint32(h[4:8], uint32(36+dataSize))
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	le.PutUint32(h[16:20], 16)
	le.PutUint16(h[20:22], FormatPCM)
	le.PutUint16(h[22:24], 1)
	le.PutUint32(h[24:28], uint32(sampleRate))
	le.PutUint32(h[28:32], uint32(sampleRate*2))
	le.PutUint16(h[32:34], 2)
	le.PutUint16(h[34:36], BitsPerSample)

	copy(h[36:40], "data")
	le.PutUint32(h[40:44], uint32(dataSize))
}

// Header describes the fields of a canonical WAV header.
type Header struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int
}

// Decode parses canonical 16-bit PCM WAV data as produced by Encode and
// returns the header and the raw little-endian sample bytes.
func Decode(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, nil, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrMalformed)
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Header{}, nil, fmt.Errorf("%w: unexpected chunk layout", ErrMalformed)
	}

	le := binary.LittleEndian
	if f := le.Uint16(data[20:22]); f != FormatPCM {
		return Header{}, nil, fmt.Errorf("%w: audio format %d is not PCM", ErrMalformed, f)
	}

	h := Header{
		Channels:      int(le.Uint16(data[22:24])),
		SampleRate:    int(le.Uint32(data[24:28])),
		BitsPerSample: int(le.Uint16(data[34:36])),
		DataSize:      int(le.Uint32(data[40:44])),
	}
	if h.BitsPerSample != BitsPerSample {
		return Header{}, nil, fmt.Errorf("%w: %d bits per sample", ErrMalformed, h.BitsPerSample)
	}
	if HeaderSize+h.DataSize > len(data) {
		return Header{}, nil, fmt.Errorf("%w: data chunk truncated", ErrMalformed)
	}

	return h, data[HeaderSize : HeaderSize+h.DataSize], nil
}
