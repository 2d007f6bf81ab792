package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/style-studio/backend/internal/models"
)

// ErrNotFound is returned when an upload or result does not exist.
var ErrNotFound = errors.New("file not found")

// ErrInvalidName is returned for result names that would escape the results directory.
var ErrInvalidName = errors.New("invalid file name")

var videoExts = map[string]bool{
	"mp4": true, "avi": true, "mov": true, "mkv": true, "webm": true,
}

// Store defines the interface for upload and result storage.
type Store interface {
	SaveUpload(name string, r io.Reader) (*models.MediaFile, error)
	Get(id string) (*models.MediaFile, error)
	UploadPath(id string) (string, error)
	RemoveUpload(id string) error
	ResultName(id, ext string) string
	ResultPath(name string) (string, error)
	Cleanup(uploadAge, resultAge time.Duration) (int, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu         sync.RWMutex
	uploadDir  string
	resultsDir string
	files      map[string]*models.MediaFile
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir, resultsDir string) (*LocalStore, error) {
	for _, dir := range []string{uploadDir, resultsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	return &LocalStore{
		uploadDir:  uploadDir,
		resultsDir: resultsDir,
		files:      make(map[string]*models.MediaFile),
	}, nil
}

// Extension returns the lowercased extension of name without the dot, or "" if there is none.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// KindForExt classifies an extension as image or video.
func KindForExt(ext string) models.MediaKind {
	if videoExts[strings.ToLower(ext)] {
		return models.MediaVideo
	}
	return models.MediaImage
}

// SaveUpload stores r under a fresh <uuid>.<ext> name. Only the extension of the
// client-supplied name is used on disk.
func (s *LocalStore) SaveUpload(name string, r io.Reader) (*models.MediaFile, error) {
	ext := Extension(filepath.Base(name))
	if ext == "" {
		return nil, fmt.Errorf("file %q has no extension", name)
	}

	id := uuid.New().String()
	stored := id + "." + ext
	path := filepath.Join(s.uploadDir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.MediaFile{
		ID:          id,
		Name:        filepath.Base(name),
		StoredName:  stored,
		Ext:         ext,
		Size:        size,
		ContentType: mime.TypeByExtension("." + ext),
		Kind:        KindForExt(ext),
		UploadedAt:  time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	return info, nil
}

// Get retrieves upload metadata by ID.
func (s *LocalStore) Get(id string) (*models.MediaFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return info, nil
}

// UploadPath returns the on-disk path of an upload.
func (s *LocalStore) UploadPath(id string) (string, error) {
	info, err := s.Get(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.uploadDir, info.StoredName), nil
}

// RemoveUpload deletes an upload and forgets its metadata.
func (s *LocalStore) RemoveUpload(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	path := filepath.Join(s.uploadDir, info.StoredName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)
	return nil
}

// ResultName returns the result file name for an upload id.
func (s *LocalStore) ResultName(id, ext string) string {
	return id + "_styled." + ext
}

// ResultPath resolves a result name inside the results directory. Names containing
// path separators or parent references are rejected.
func (s *LocalStore) ResultPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.resultsDir, name), nil
}

// Cleanup removes uploads older than uploadAge and results older than resultAge.
// It returns the number of files removed.
func (s *LocalStore) Cleanup(uploadAge, resultAge time.Duration) (int, error) {
	removedUploads, err := CleanupOlderThan(s.uploadDir, uploadAge)
	if err != nil {
		return removedUploads, err
	}

	if removedUploads > 0 {
		s.forgetMissing()
	}

	removedResults, err := CleanupOlderThan(s.resultsDir, resultAge)
	return removedUploads + removedResults, err
}

func (s *LocalStore) forgetMissing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, info := range s.files {
		if _, err := os.Stat(filepath.Join(s.uploadDir, info.StoredName)); os.IsNotExist(err) {
			delete(s.files, id)
		}
	}
}

// CleanupOlderThan removes regular files in dir whose modification time is older than age.
// A missing directory is not an error.
func CleanupOlderThan(dir string, age time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}
