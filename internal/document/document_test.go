package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{"heading and paragraph", "# Title\n\nSome text here", "Title. Some text here."},
		{"keeps punctuation", "Is this it?\n\nYes!", "Is this it? Yes!"},
		{"skips code", "Intro\n\n```go\nfmt.Println()\n```\n\nOutro", "Intro. Outro."},
		{"link text only", "See [the docs](https://example.com) now", "See the docs now."},
		{"list items", "- one\n- two", "one. two."},
		{"emphasis", "This is *very* **bold**", "This is very bold."},
		{"soft break", "line one\nline two", "line one line two."},
		{"image alt", "![a cat](cat.png)", "a cat."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.markdown); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadArgument(t *testing.T) {
	doc, err := Load("Hello world", nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != SourceArgument || doc.Text != "Hello world" {
		t.Errorf("Load() = %+v", doc)
	}
}

func TestLoadStdin(t *testing.T) {
	doc, err := Load("-", strings.NewReader("piped text\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != SourceStdin || doc.Text != "piped text" {
		t.Errorf("Load(-) = %+v", doc)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "note.txt")
	md := filepath.Join(dir, "README.md")
	if err := os.WriteFile(plain, []byte("# not a heading\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(md, []byte("# Heading\n\nBody"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(plain, nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Source != SourceFile || doc.Markdown || doc.Text != "# not a heading" {
		t.Errorf("Load(txt) = %+v", doc)
	}

	doc, err = Load(md, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Markdown || doc.Text != "Heading. Body." {
		t.Errorf("Load(md) = %+v", doc)
	}
}

func TestLoadTooLarge(t *testing.T) {
	big := strings.NewReader(strings.Repeat("a", maxReadBytes+10))
	if _, err := Load("-", big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Load() error = %v, want ErrTooLarge", err)
	}
}

func TestIsMarkdown(t *testing.T) {
	tests := map[string]bool{
		"a.md":       true,
		"B.MARKDOWN": true,
		"c.txt":      false,
		"d":          false,
	}
	for path, want := range tests {
		if got := IsMarkdown(path); got != want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", path, got, want)
		}
	}
}
