package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	return NewLocalStorage(t.TempDir())
}

func TestNewLocalStorage(t *testing.T) {
	storage := NewLocalStorage("/base/path")

	if storage.basePath != "/base/path" {
		t.Errorf("expected basePath /base/path, got %s", storage.basePath)
	}
	if storage.index == nil {
		t.Error("index should be initialized")
	}
}

func TestPut(t *testing.T) {
	storage := setupTestStorage(t)
	data := []byte("\x89PNG fake image")

	obj, err := storage.Put(context.Background(), "avatars/u1/a", "image/png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if obj.Key != "avatars/u1/a" {
		t.Errorf("expected key avatars/u1/a, got %s", obj.Key)
	}
	if obj.ContentType != "image/png" {
		t.Errorf("expected content type image/png, got %s", obj.ContentType)
	}
	if obj.Size != int64(len(data)) {
		t.Errorf("expected size %d, got %d", len(data), obj.Size)
	}
	if len(obj.Hash) != 64 {
		t.Errorf("expected sha256 hex hash, got %q", obj.Hash)
	}

	if _, err := os.Stat(storage.filePath(obj.Key)); os.IsNotExist(err) {
		t.Error("object should exist on disk")
	}
	if _, exists := storage.index[obj.Key]; !exists {
		t.Error("object should be in index")
	}
}

func TestPut_CancelledContext(t *testing.T) {
	storage := setupTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := storage.Put(ctx, "k", "image/png", strings.NewReader("x")); err == nil {
		t.Error("Put should fail on a cancelled context")
	}
}

func TestGet(t *testing.T) {
	storage := setupTestStorage(t)
	data := []byte("avatar bytes")
	if _, err := storage.Put(context.Background(), "avatars/u1/b", "image/jpeg", bytes.NewReader(data)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reader, obj, err := storage.Get(context.Background(), "avatars/u1/b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer reader.Close()

	if obj.ContentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", obj.ContentType)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read content: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Errorf("content mismatch: expected %s, got %s", data, content)
	}
}

func TestGet_NotExists(t *testing.T) {
	storage := setupTestStorage(t)

	_, _, err := storage.Get(context.Background(), "missing")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	storage := setupTestStorage(t)
	obj, err := storage.Put(context.Background(), "avatars/u1/c", "image/gif", strings.NewReader("gif"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	path := storage.filePath(obj.Key)

	if err := storage.Delete(context.Background(), obj.Key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("object should not exist after delete")
	}
	if _, exists := storage.index[obj.Key]; exists {
		t.Error("object should not be in index after delete")
	}

	// idempotent
	if err := storage.Delete(context.Background(), obj.Key); err != nil {
		t.Errorf("second Delete should not error, got: %v", err)
	}
}

func TestSaveAndLoadIndex(t *testing.T) {
	storage := setupTestStorage(t)
	storage.Put(context.Background(), "one", "image/png", strings.NewReader("1"))
	storage.Put(context.Background(), "two", "image/png", strings.NewReader("2"))

	reloaded := NewLocalStorage(storage.basePath)
	if err := reloaded.LoadIndex(); err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if len(reloaded.index) != 2 {
		t.Errorf("expected 2 objects in loaded index, got %d", len(reloaded.index))
	}

	reader, _, err := reloaded.Get(context.Background(), "two")
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	reader.Close()
}

func TestLoadIndex_EmptyStorage(t *testing.T) {
	storage := setupTestStorage(t)

	if err := storage.LoadIndex(); err != nil {
		t.Errorf("LoadIndex on empty storage should not error, got: %v", err)
	}
}

func TestPut_OverwriteKeepsLatest(t *testing.T) {
	storage := setupTestStorage(t)
	storage.Put(context.Background(), "k", "image/png", strings.NewReader("first"))
	storage.Put(context.Background(), "k", "image/webp", strings.NewReader("second"))

	reader, obj, err := storage.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer reader.Close()

	content, _ := io.ReadAll(reader)
	if string(content) != "second" || obj.ContentType != "image/webp" {
		t.Errorf("expected latest object, got %q (%s)", content, obj.ContentType)
	}
}

func TestFilePath(t *testing.T) {
	storage := NewLocalStorage("/base/path")

	path := storage.filePath("../../etc/passwd")
	if !strings.HasPrefix(path, filepath.Join("/base/path", "data")+string(filepath.Separator)) {
		t.Errorf("path escaped base dir: %s", path)
	}
	if filepath.Ext(path) != ".dat" {
		t.Errorf("expected .dat extension, got %s", path)
	}
	if path != storage.filePath("../../etc/passwd") {
		t.Error("filePath should be deterministic")
	}
}

func TestIndexPath(t *testing.T) {
	storage := NewLocalStorage("/base/path")

	expected := filepath.Join("/base/path", "index.json")
	if actual := storage.indexPath(); actual != expected {
		t.Errorf("expected path %s, got %s", expected, actual)
	}
}

func TestPut_ConcurrentIndexWrites(t *testing.T) {
	storage := setupTestStorage(t)
	const writers = 64

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("avatars/u%d/a", i)
			if _, err := storage.Put(context.Background(), key, "image/png", strings.NewReader(key)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Put failed: %v", err)
	}

	reloaded := NewLocalStorage(storage.basePath)
	if err := reloaded.LoadIndex(); err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if len(reloaded.index) != writers {
		t.Errorf("expected %d objects in reloaded index, got %d", writers, len(reloaded.index))
	}

	leftovers, _ := filepath.Glob(filepath.Join(storage.basePath, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
