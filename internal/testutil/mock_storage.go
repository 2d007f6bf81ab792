// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/style-studio/backend/internal/models"
	"github.com/style-studio/backend/internal/storage"
)

// MockStorage implements storage.Store for testing. Files are written under a
// temp directory so processing code can read them back.
type MockStorage struct {
	mu       sync.RWMutex
	dir      string
	files    map[string]*models.MediaFile
	SaveErr  error
	Cleaned  int
	Removed  []string
	LastAges [2]time.Duration
}

// NewMockStorage creates a mock storage rooted at dir.
func NewMockStorage(dir string) *MockStorage {
	os.MkdirAll(filepath.Join(dir, "uploads"), 0755)
	os.MkdirAll(filepath.Join(dir, "results"), 0755)
	return &MockStorage{
		dir:   dir,
		files: make(map[string]*models.MediaFile),
	}
}

func (m *MockStorage) SaveUpload(name string, r io.Reader) (*models.MediaFile, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.AddFile(generateTestID(), name, data), nil
}

func (m *MockStorage) Get(id string) (*models.MediaFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return file, nil
}

func (m *MockStorage) UploadPath(id string) (string, error) {
	file, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.dir, "uploads", file.StoredName), nil
}

func (m *MockStorage) RemoveUpload(id string) error {
	path, err := m.UploadPath(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	m.Removed = append(m.Removed, id)
	return os.Remove(path)
}

func (m *MockStorage) ResultName(id, ext string) string {
	return id + "_styled." + ext
}

func (m *MockStorage) ResultPath(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || name == ".." {
		return "", storage.ErrInvalidName
	}
	return filepath.Join(m.dir, "results", name), nil
}

func (m *MockStorage) Cleanup(uploadAge, resultAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastAges = [2]time.Duration{uploadAge, resultAge}
	return m.Cleaned, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddFile writes an upload to disk and registers it under id.
func (m *MockStorage) AddFile(id, name string, data []byte) *models.MediaFile {
	m.mu.Lock()
	defer m.mu.Unlock()

	ext := storage.Extension(name)
	stored := id + "." + ext
	if err := os.WriteFile(filepath.Join(m.dir, "uploads", stored), data, 0644); err != nil {
		panic(fmt.Sprintf("failed to write test file: %v", err))
	}

	file := &models.MediaFile{
		ID:         id,
		Name:       name,
		StoredName: stored,
		Ext:        ext,
		Size:       int64(len(data)),
		Kind:       storage.KindForExt(ext),
		UploadedAt: time.Now(),
	}
	m.files[id] = file
	return file
}

// AddResult writes a result file directly.
func (m *MockStorage) AddResult(name string, data []byte) string {
	path := filepath.Join(m.dir, "results", name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		panic(fmt.Sprintf("failed to write test result: %v", err))
	}
	return path
}

// GetFileCount returns the number of stored uploads
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// ErrMockFailure is a generic injected failure.
var ErrMockFailure = errors.New("mock failure")

var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
