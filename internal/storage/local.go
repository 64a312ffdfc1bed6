// Package storage keeps uploaded files on local disk under the uploads
// tree that the server exposes at /uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload categories.
const (
	CategoryProfile = "profile"
	CategoryPhotos  = "photos"
)

// ErrInvalidPath is returned for keys that would escape the base directory.
var ErrInvalidPath = errors.New("invalid storage path")

// Storage is the file store used by handlers.  Keys are slash-separated
// paths relative to the uploads root, e.g. "photos/<uuid>.jpg".
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(stored string) string
}

// LocalStorage implements Storage on the local filesystem.
type LocalStorage struct {
	basePath  string // directory on disk, UPLOAD_DIR
	urlPrefix string // URL path the directory is served under
	baseURL   string // public origin, BASE_URL
}

// NewLocalStorage creates basePath if needed.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, urlPrefix: "uploads", baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// NewKey returns a fresh key in category with the given extension.
func NewKey(category, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(category, uuid.NewString()+strings.ToLower(ext))
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	clean := path.Clean("/" + strings.TrimPrefix(key, s.urlPrefix+"/"))
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

// Save writes r under key and returns the stored path as it should be
// recorded in the database ("uploads/<key>").
func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return path.Join(s.urlPrefix, key), nil
}

// Delete removes the file; a missing file is not an error.  It accepts both
// raw keys and stored paths.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PublicURL prefixes a stored relative path with the public base URL.
// Absolute URLs are returned unchanged.
func (s *LocalStorage) PublicURL(stored string) string {
	if stored == "" || strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}
	return s.baseURL + "/" + strings.TrimPrefix(stored, "/")
}
