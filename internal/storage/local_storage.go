package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type LocalStorage struct {
	basePath string
	index    map[string]Object
	mutex    sync.RWMutex

	// saveMu orders index writes so the file on disk is never older than
	// the last completed Put or Delete.
	saveMu sync.Mutex
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		index:    make(map[string]Object),
	}
}

func (s *LocalStorage) Put(ctx context.Context, key, contentType string, data io.Reader) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(s.basePath, "object-*.tmp")
	if err != nil {
		return nil, err
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	contentHash := sha256.New()
	buf := make([]byte, 256*1024)
	size, err := io.CopyBuffer(io.MultiWriter(f, contentHash), data, buf)
	f.Close()
	if err != nil {
		return nil, err
	}

	finalPath := s.filePath(key)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, err
	}

	obj := Object{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		Hash:        hex.EncodeToString(contentHash.Sum(nil)),
		StoredAt:    time.Now().UTC(),
	}

	s.mutex.Lock()
	s.index[key] = obj
	s.mutex.Unlock()

	if err := s.SaveIndex(); err != nil {
		return nil, fmt.Errorf("object saved but index update failed: %w", err)
	}
	return &obj, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	s.mutex.Lock()
	delete(s.index, key)
	s.mutex.Unlock()

	if err := s.SaveIndex(); err != nil {
		return fmt.Errorf("object deleted but index update failed: %w", err)
	}
	return nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	s.mutex.RLock()
	obj, exists := s.index[key]
	s.mutex.RUnlock()

	if !exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	f, err := os.Open(s.filePath(key))
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, nil, err
	}
	return f, &obj, nil
}

func (s *LocalStorage) LoadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return json.Unmarshal(data, &s.index)
}

func (s *LocalStorage) SaveIndex() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mutex.RLock()
	jsonStr, err := json.Marshal(s.index)
	s.mutex.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.basePath, "index-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jsonStr); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.indexPath())
}

// filePath spreads objects over 256 directories by the digest of their key,
// so arbitrary keys never reach the filesystem as path components.
func (s *LocalStorage) filePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	return filepath.Join(s.basePath, "data", digest[:2], fmt.Sprintf("%s.dat", digest))
}

func (s *LocalStorage) indexPath() string {
	return filepath.Join(s.basePath, "index.json")
}
