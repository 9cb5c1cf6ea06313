package artifact

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ExportMimeType is the content type of metadata bundles.
const ExportMimeType = "text/plain; charset=utf-8"

// ExportRequest carries what the bundle describes.
type ExportRequest struct {
	AppName   string
	Text      string
	Language  string
	Voice     string
	Estimated time.Duration
}

type exportMetadata struct {
	App        string `yaml:"app"`
	Created    string `yaml:"created"`
	Language   string `yaml:"language"`
	Voice      string `yaml:"voice,omitempty"`
	Characters int    `yaml:"characters"`
	Estimated  string `yaml:"estimated_duration"`
	Format     string `yaml:"format"`
}

const exportInstructions = `This file contains your text as an SSML document.

Browsers and terminals cannot record the system speech engine directly. To
get an audio file, paste the SSML section below into a speech service that
accepts SSML (for example a cloud text-to-speech console) and download the
result as MP3 or WAV.
`

// SSML returns a <speak> document for text in the given language and voice.
func SSML(text, lang, voice string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("escape text: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(xml.Header)
	fmt.Fprintf(&b, `<speak version="1.1" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`, xmlAttr(lang))
	b.WriteByte('\n')
	if voice != "" {
		fmt.Fprintf(&b, `  <voice name="%s">%s</voice>`, xmlAttr(voice), escaped.String())
	} else {
		fmt.Fprintf(&b, "  %s", escaped.String())
	}
	b.WriteString("\n</speak>\n")
	return b.String(), nil
}

func xmlAttr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Export builds the metadata bundle artifact.
func Export(req ExportRequest, now time.Time) (*Artifact, error) {
	ssml, err := SSML(req.Text, req.Language, req.Voice)
	if err != nil {
		return nil, err
	}

	meta, err := yaml.Marshal(exportMetadata{
		App:        appNameOrDefault(req.AppName),
		Created:    now.UTC().Format(time.RFC3339),
		Language:   req.Language,
		Voice:      req.Voice,
		Characters: utf8.RuneCountInString(req.Text),
		Estimated:  req.Estimated.String(),
		Format:     "ssml",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal export metadata: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(exportInstructions)
	b.WriteString("\n--- metadata ---\n")
	b.Write(meta)
	b.WriteString("\n--- ssml ---\n")
	b.WriteString(ssml)

	return New(KindMetadataExport, b.Bytes(), ExportMimeType, "txt", req.AppName, now), nil
}

func appNameOrDefault(name string) string {
	if name == "" {
		return DefaultAppName
	}
	return name
}
