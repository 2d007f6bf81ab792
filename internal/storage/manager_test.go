// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/style-studio/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	tempDir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(tempDir, "uploads"), filepath.Join(tempDir, "results"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	old := time.Now().Add(-d)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Failed to age %s: %v", path, err)
	}
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates both directories", func(t *testing.T) {
		store := createTestStore(t)
		for _, dir := range []string{store.uploadDir, store.resultsDir} {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				t.Errorf("Expected directory %s to be created", dir)
			}
		}
	})
}

func TestExtensionAndKind(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		kind models.MediaKind
	}{
		{"photo.PNG", "png", models.MediaImage},
		{"clip.final.Mp4", "mp4", models.MediaVideo},
		{"movie.webm", "webm", models.MediaVideo},
		{"scan.tiff", "tiff", models.MediaImage},
		{"noext", "", models.MediaImage},
		{"trailing.", "", models.MediaImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := Extension(tt.name)
			if ext != tt.ext {
				t.Errorf("Extension(%q) = %q, want %q", tt.name, ext, tt.ext)
			}
			if tt.ext != "" && KindForExt(ext) != tt.kind {
				t.Errorf("KindForExt(%q) = %q, want %q", ext, KindForExt(ext), tt.kind)
			}
		})
	}
}

func TestLocalStore_SaveUpload(t *testing.T) {
	t.Run("stores under uuid name", func(t *testing.T) {
		store := createTestStore(t)
		content := "fake image bytes"

		info, err := store.SaveUpload("../../My Photo.JPG", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.Name != "My Photo.JPG" {
			t.Errorf("Expected base name, got %q", info.Name)
		}
		if info.StoredName != info.ID+".jpg" {
			t.Errorf("Expected stored name %s.jpg, got %s", info.ID, info.StoredName)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.Kind != models.MediaImage {
			t.Errorf("Expected image kind, got %s", info.Kind)
		}

		path, err := store.UploadPath(info.ID)
		if err != nil {
			t.Fatalf("UploadPath failed: %v", err)
		}
		if filepath.Dir(path) != store.uploadDir {
			t.Errorf("Upload escaped the uploads directory: %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != content {
			t.Errorf("Stored content mismatch: %q, %v", data, err)
		}
	})

	t.Run("rejects names without extension", func(t *testing.T) {
		store := createTestStore(t)
		if _, err := store.SaveUpload("README", strings.NewReader("x")); err == nil {
			t.Error("Expected error for missing extension")
		}
	})
}

func TestLocalStore_RemoveUpload(t *testing.T) {
	store := createTestStore(t)
	info, err := store.SaveUpload("a.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}
	path, _ := store.UploadPath(info.ID)

	if err := store.RemoveUpload(info.ID); err != nil {
		t.Fatalf("RemoveUpload failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected upload file to be deleted")
	}
	if _, err := store.Get(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.RemoveUpload(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second remove, got %v", err)
	}
}

func TestLocalStore_ResultPath(t *testing.T) {
	store := createTestStore(t)

	name := store.ResultName("abc", "mp4")
	if name != "abc_styled.mp4" {
		t.Errorf("Unexpected result name %q", name)
	}

	path, err := store.ResultPath(name)
	if err != nil {
		t.Fatalf("ResultPath failed: %v", err)
	}
	if path != filepath.Join(store.resultsDir, name) {
		t.Errorf("Unexpected result path %q", path)
	}

	for _, bad := range []string{"", ".", "..", "../secret", "a/b.png", `a\b.png`} {
		if _, err := store.ResultPath(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ResultPath(%q) expected ErrInvalidName, got %v", bad, err)
		}
	}
}

func TestLocalStore_Cleanup(t *testing.T) {
	store := createTestStore(t)

	fresh, _ := store.SaveUpload("fresh.png", strings.NewReader("x"))
	stale, _ := store.SaveUpload("stale.png", strings.NewReader("x"))
	stalePath, _ := store.UploadPath(stale.ID)
	age(t, stalePath, 3*time.Hour)

	oldResult := filepath.Join(store.resultsDir, "old_styled.png")
	newResult := filepath.Join(store.resultsDir, "new_styled.png")
	for _, p := range []string{oldResult, newResult} {
		if err := os.WriteFile(p, []byte("r"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	age(t, oldResult, 49*time.Hour)
	age(t, newResult, 2*time.Hour)

	removed, err := store.Cleanup(2*time.Hour, 48*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 files removed, got %d", removed)
	}

	if _, err := store.Get(fresh.ID); err != nil {
		t.Errorf("Fresh upload should survive: %v", err)
	}
	if _, err := store.Get(stale.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stale upload metadata should be forgotten, got %v", err)
	}
	if _, err := os.Stat(newResult); err != nil {
		t.Errorf("Recent result should survive: %v", err)
	}
	if _, err := os.Stat(oldResult); !os.IsNotExist(err) {
		t.Error("Old result should be removed")
	}
}

func TestCleanupOlderThan_MissingDir(t *testing.T) {
	removed, err := CleanupOlderThan(filepath.Join(t.TempDir(), "nope"), time.Hour)
	if err != nil || removed != 0 {
		t.Errorf("Expected (0, nil), got (%d, %v)", removed, err)
	}
}
