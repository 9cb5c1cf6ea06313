package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ErrNoArtifact is returned when there is nothing to save.
var ErrNoArtifact = errors.New("no artifact to save")

// Save writes a to dir under its suggested filename and returns the path.
// An existing file is never overwritten; a numeric suffix is added instead.
func Save(a *Artifact, dir string) (string, error) {
	if a == nil || len(a.Bytes) == 0 {
		return "", ErrNoArtifact
	}

	if dir == "" {
		dir = "."
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("unable to expand output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}

	ext := filepath.Ext(a.Filename)
	base := strings.TrimSuffix(a.Filename, ext)

	for i := 0; ; i++ {
		name := a.Filename
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("unable to create file: %w", err)
		}

		if _, err := f.Write(a.Bytes); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("unable to write file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("unable to close file: %w", err)
		}
		return path, nil
	}
}
