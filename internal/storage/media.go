// Package storage persists uploaded media files on disk. Files are
// stored under a per-kind subdirectory with a generated name, and the
// stored relative path is what the memories table records.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"familyvault/internal/upload"
)

// MediaStore writes and removes media files under a base directory
type MediaStore struct {
	baseDir string
	maxSize int64
}

// NewMediaStore creates a media store rooted at baseDir
func NewMediaStore(baseDir string, maxSize int64) (*MediaStore, error) {
	for _, kind := range []upload.Kind{upload.KindPhoto, upload.KindVideo, upload.KindAudio} {
		dir := filepath.Join(baseDir, kindDir(kind))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
		}
	}
	return &MediaStore{baseDir: baseDir, maxSize: maxSize}, nil
}

func kindDir(kind upload.Kind) string {
	return strings.ToLower(string(kind)) + "s"
}

// Save stores an uploaded file for the given kind and returns the
// relative path to record. The file's declared content type must match
// the kind's MIME filter and its size must fit the configured limit.
func (s *MediaStore) Save(header *multipart.FileHeader, kind upload.Kind) (string, error) {
	rule, err := upload.RuleFor(kind)
	if err != nil {
		return "", err
	}

	contentType := header.Header.Get("Content-Type")
	if !rule.Accepts(contentType) {
		return "", fmt.Errorf("%s upload rejects content type %q", kind, contentType)
	}
	if s.maxSize > 0 && header.Size > s.maxSize {
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", s.maxSize)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(header.Filename)
	name := uuid.New().String() + ext
	relPath := filepath.Join(kindDir(kind), name)
	fullPath := filepath.Join(s.baseDir, relPath)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return relPath, nil
}

// Remove deletes a stored media file. A missing file is not an error:
// the database row is the source of truth and removal is best effort.
func (s *MediaStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

// Path resolves a stored relative path to the absolute file path for
// serving
func (s *MediaStore) Path(relPath string) (string, error) {
	return s.resolve(relPath)
}

// BaseDir returns the store's root directory
func (s *MediaStore) BaseDir() string {
	return s.baseDir
}

// resolve joins relPath under the base directory, rejecting any path
// that escapes it
func (s *MediaStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid media path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
