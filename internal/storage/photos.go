package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"quizbot/internal/roster"
)

// MaxPhotoSize bounds accepted photo uploads.
const MaxPhotoSize = 10 << 20 // 10 MiB

var allowedPhotoExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// PhotoStore saves player photos under a configured directory with
// collision-free sanitized filenames.
type PhotoStore struct {
	dir string
}

// NewPhotoStore creates the photo directory if needed.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("photo store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("photo store: %w", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Save writes the photo stream to disk and returns the stored path.
// The base name is sanitized, a random suffix avoids collisions, and the
// extension must be one of .jpg/.jpeg/.png. Streams larger than MaxPhotoSize
// are rejected and the partial file removed.
func (s *PhotoStore) Save(baseName, ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if _, ok := allowedPhotoExts[ext]; !ok {
		return "", fmt.Errorf("%w: photo extension %q not allowed", roster.ErrInvalidInput, ext)
	}

	name := fmt.Sprintf("%s_%s%s", sanitizeFilename(baseName), uuid.NewString()[:8], ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("photo store: create: %w", err)
	}

	// Read one byte past the cap to detect oversized streams.
	n, err := io.Copy(f, io.LimitReader(r, MaxPhotoSize+1))
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("photo store: write: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("photo store: close: %w", closeErr)
	}
	if n > MaxPhotoSize {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: photo exceeds %d bytes", roster.ErrInvalidInput, int64(MaxPhotoSize))
	}

	return path, nil
}

// Remove deletes a stored photo; a missing file is not an error.
func (s *PhotoStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("photo store: remove: %w", err)
	}
	return nil
}

// sanitizeFilename keeps letters, digits, '-' and '_', replacing everything
// else with '_', so user names cannot escape the photo directory.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "photo"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
