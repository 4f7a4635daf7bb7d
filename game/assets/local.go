package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements service.ImageStore on the local file system
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore stores images below dir. baseURL prefixes the returned URLs;
// an empty baseURL yields site-relative URLs such as /images/fruit/1-0.png.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Dir returns the root directory, which the HTTP server serves as-is
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes the image and returns its URL
func (s *LocalStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	key, _, err := checkUpload(key, size)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	// one extra byte tells an oversized body apart from one at the limit
	written, err := io.Copy(file, io.LimitReader(body, MaxImageBytes+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxImageBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, MaxImageBytes)
	}
	if err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return joinURL(s.baseURL, key), nil
}
