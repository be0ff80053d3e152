// Package media keeps uploaded prescription and package images on local
// disk, validating them before they reach the classifier.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"MedTracker/internal/domain"
	"MedTracker/internal/ports"
)

// ErrInvalidImage marks uploads that fail validation; such files are not
// kept.
var ErrInvalidImage = domain.ErrInvalidImage

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".pdf":  true,
}

// Store writes uploads under a base directory with collision-free names.
type Store struct {
	dir string
}

var _ ports.FileStore = (*Store)(nil)

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save validates and persists one upload. Corrupt payloads are rejected with
// ErrInvalidImage and nothing is left on disk.
func (s *Store) Save(_ context.Context, userID int64, originalName string, data []byte) (domain.StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return domain.StoredFile{}, fmt.Errorf("%w: file type %q not allowed", ErrInvalidImage, ext)
	}
	if err := validate(ext, data); err != nil {
		return domain.StoredFile{}, err
	}

	name := fmt.Sprintf("%d_%s%s", userID, uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.StoredFile{}, fmt.Errorf("write upload: %w", err)
	}

	return domain.StoredFile{Path: path, Size: int64(len(data))}, nil
}

// Remove deletes a stored upload.
func (s *Store) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func validate(ext string, data []byte) error {
	if ext == ".pdf" {
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			return fmt.Errorf("%w: missing PDF header", ErrInvalidImage)
		}
		return nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return nil
}
