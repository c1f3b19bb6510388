package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FilesystemStore writes blobs under a root directory served as static files.
type FilesystemStore struct {
	root    string
	baseURL string
}

var _ Store = (*FilesystemStore)(nil)

// NewFilesystemStore creates a filesystem store rooted at root. Returned
// URLs are baseURL joined with the key.
// PRE: root exists or can be created
func NewFilesystemStore(root, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	if baseURL == "" {
		baseURL = "/uploads/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FilesystemStore{root: root, baseURL: baseURL}, nil
}

// cleanKey rejects keys that would escape the root directory.
func (s *FilesystemStore) cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == "/" || strings.HasPrefix(cleaned, "/") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return cleaned, nil
}

// Put implements Store.
func (s *FilesystemStore) Put(_ context.Context, key, _ string, content io.Reader) (string, error) {
	cleaned, err := s.cleanKey(key)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	file, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create blob temp file: %w", err)
	}
	defer os.Remove(file.Name())

	written, err := io.Copy(file, content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if written == 0 {
		return "", ErrEmptyBytes
	}
	if err := os.Rename(file.Name(), target); err != nil {
		return "", fmt.Errorf("finalize blob: %w", err)
	}
	return s.baseURL + cleaned, nil
}

// Delete implements Store.
func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	cleaned, err := s.cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
