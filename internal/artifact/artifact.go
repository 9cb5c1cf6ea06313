// Package artifact models the downloadable result of one playback attempt
// and the collaborator that saves it to disk.
package artifact

import (
	"fmt"
	"time"

	"github.com/dgnsrekt/speakwav/internal/pcm"
	"github.com/dgnsrekt/speakwav/internal/wav"
)

// Kind tags how an artifact was produced.
type Kind int

const (
	// KindRecorded is real audio captured while the engine spoke.
	KindRecorded Kind = iota

	// KindSynthesized is the placeholder waveform encoded as WAV.
	KindSynthesized

	// KindMetadataExport is a text bundle for an external speech service.
	KindMetadataExport
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRecorded:
		return "recorded"
	case KindSynthesized:
		return "synthesized"
	case KindMetadataExport:
		return "metadata-export"
	default:
		return "unknown"
	}
}

// DefaultAppName prefixes suggested filenames.
const DefaultAppName = "speakwav"

// Artifact is an opaque payload with a content type and a suggested
// filename. It is never modified after construction.
type Artifact struct {
	Kind      Kind
	Bytes     []byte
	MimeType  string
	Extension string
	Filename  string
	CreatedAt time.Time
}

// New builds an artifact and derives its suggested filename.
func New(kind Kind, data []byte, mimeType, ext, appName string, now time.Time) *Artifact {
	return &Artifact{
		Kind:      kind,
		Bytes:     data,
		MimeType:  mimeType,
		Extension: ext,
		Filename:  SuggestedFilename(appName, now, ext),
		CreatedAt: now,
	}
}

// Size returns the payload size in bytes.
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Bytes)
}

// SuggestedFilename returns "<app>_<YYYY-MM-DD>.<ext>" using the UTC date.
func SuggestedFilename(appName string, now time.Time, ext string) string {
	if appName == "" {
		appName = DefaultAppName
	}
	return fmt.Sprintf("%s_%s.%s", appName, now.UTC().Format("2006-01-02"), ext)
}

// FromPCM encodes buf as WAV and wraps it as a synthesized artifact.
func FromPCM(buf pcm.Buffer, appName string, now time.Time) (*Artifact, error) {
	data, err := wav.Encode(buf)
	if err != nil {
		return nil, err
	}
	return New(KindSynthesized, data, wav.MimeType, "wav", appName, now), nil
}
