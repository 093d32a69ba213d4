// Package screenshot persists detection evidence as PNG files.
package screenshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Writer drops one PNG per detected availability into its directory.
// Files are write-only evidence; nothing ever reads them back.
type Writer struct {
	dir string
	seq atomic.Uint64
	now func() time.Time
}

// NewWriter creates the screenshot directory if needed and returns a Writer.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Write stores the PNG under a timestamped name and returns the full path.
// A per-process sequence number keeps names distinct even when two
// detections land in the same second.
func (w *Writer) Write(label string, png []byte) (string, error) {
	name := fmt.Sprintf("%s_%s_%04d.png",
		w.now().Format("20060102_150405"),
		sanitizeLabel(label),
		w.seq.Add(1))

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	return path, nil
}

// Dir returns the directory screenshots are written into.
func (w *Writer) Dir() string {
	return w.dir
}

func sanitizeLabel(label string) string {
	if label == "" {
		return "capture"
	}
	safe := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe = append(safe, r)
		default:
			safe = append(safe, '_')
		}
	}
	return string(safe)
}
