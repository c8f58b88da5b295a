package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedFileType = errors.New("only images (jpeg, jpg, png, webp, heic) are allowed")

var allowedImageExt = regexp.MustCompile(`^\.(jpeg|jpg|png|webp|heic)$`)

// LocalStore keeps uploaded files on disk and serves them under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed. baseURL is the public prefix the files are served from,
// e.g. http://localhost:3000/uploads/product.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// GenerateFilename returns a collision-free name for an upload, keeping its image extension.
func GenerateFilename(originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedImageExt.MatchString(ext) {
		return "", ErrUnsupportedFileType
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext), nil
}

// Save writes r under filename and returns the public URL.
func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	f, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return s.URL(filename), nil
}

// URL is the public address of a stored file.
func (s *LocalStore) URL(filename string) string {
	return s.baseURL + "/" + filename
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *LocalStore) Delete(ctx context.Context, filename string) error {
	if filename == "" || filename != filepath.Base(filename) {
		return fmt.Errorf("invalid filename %q", filename)
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// FilenameFromURL reports the stored filename behind url when url points into this store.
// External image URLs are left alone.
func (s *LocalStore) FilenameFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
