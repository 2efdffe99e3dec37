// Package storage writes uploaded image bytes to a server-local
// directory. Files are stored under generated collision-resistant
// names; the uploader's label never touches the filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ImageStore saves and removes image files under a fixed directory
// and derives public URLs from a configured base.
type ImageStore struct {
	dir     string
	baseURL string
}

// NewImageStore ensures the target directory exists and returns a
// store bound to it. baseURL should include a trailing slash or
// not; the stored name is joined with exactly one.
func NewImageStore(dir, baseURL string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &ImageStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes the bytes from r to a freshly generated filename and
// returns the stored name together with its public URL. Name
// generation and the write happen in one call so no shared state
// sits between picking a name and using it. A failed write is a
// real error; the caller must not create a database row for it.
func (s *ImageStore) Save(r io.Reader, originalName string) (storedName, publicURL string, err error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", "", fmt.Errorf("generate filename: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName = id + ext

	f, err := os.OpenFile(filepath.Join(s.dir, storedName), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(filepath.Join(s.dir, storedName))
		return "", "", fmt.Errorf("write image file: %w", err)
	}
	return storedName, s.baseURL + "/" + storedName, nil
}

// Remove deletes a stored file by its generated name. Only the
// base name is honored, so a label or path can never escape the
// image directory. Removal of an already-missing file is not an
// error.
func (s *ImageStore) Remove(storedName string) error {
	name := filepath.Base(storedName)
	if name == "." || name == string(filepath.Separator) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
