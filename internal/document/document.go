// Package document resolves the text to speak from a command-line argument,
// a file or standard input.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// maxReadBytes bounds how much of a file or stream is read. Validation of
// the character limit happens later; this only stops runaway input.
const maxReadBytes = 1 << 20

// ErrTooLarge is returned for inputs over maxReadBytes.
var ErrTooLarge = errors.New("input larger than 1 MiB")

// Source describes where a document came from.
type Source int

const (
	SourceArgument Source = iota
	SourceFile
	SourceStdin
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceArgument:
		return "argument"
	case SourceFile:
		return "file"
	case SourceStdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// Document is speakable input.
type Document struct {
	Text   string
	Source Source
	// Path is set for SourceFile.
	Path     string
	Markdown bool
}

// Load resolves arg. "-" reads stdin; an existing file is read; anything
// else is the text itself. Markdown files are reduced to plain text.
func Load(arg string, stdin io.Reader) (Document, error) {
	if arg == "-" {
		text, err := readAll(stdin)
		if err != nil {
			return Document{}, fmt.Errorf("read stdin: %w", err)
		}
		return Document{Text: text, Source: SourceStdin}, nil
	}

	path, err := homedir.Expand(arg)
	if err != nil {
		path = arg
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Document{Text: arg, Source: SourceArgument}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	text, err := readAll(f)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	doc := Document{Text: text, Source: SourceFile, Path: path}
	if IsMarkdown(path) {
		doc.Text = PlainText(text)
		doc.Markdown = true
	}
	return doc, nil
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// StdinPiped reports whether stdin is a pipe or file rather than a terminal.
func StdinPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

func readAll(r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("no input")
	}
	data, err := io.ReadAll(io.LimitReader(r, maxReadBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxReadBytes {
		return "", ErrTooLarge
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
