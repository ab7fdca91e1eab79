package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"PoliticianEvaluator/internal/ports"
)

const maxCollisions = 1000

// FileWriter stores JSON artifacts in a directory and never overwrites an existing file.
type FileWriter struct {
	dir string
}

var _ ports.ArtifactWriter = (*FileWriter)(nil)

// NewFileWriter returns a writer rooted at dir.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{dir: dir}
}

// Write encodes payload as indented JSON into dir/name. When the name is taken
// a _<n> suffix is added before the extension. It returns the path written.
func (w *FileWriter) Write(name string, payload any) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	body = append(body, '\n')

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n < maxCollisions; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		path := filepath.Join(w.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create artifact: %w", err)
		}

		if _, err := f.Write(body); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close artifact: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("artifact %s: too many name collisions", name)
}
