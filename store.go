package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// SecretStore keys persisted by the SDK.
const (
	storeKeyAccessToken  = "access_token"
	storeKeyRefreshToken = "refresh_token"
	storeKeySessionToken = "session_token"
	storeKeyUser         = "user"
)

var allStoreKeys = []string{storeKeyAccessToken, storeKeyRefreshToken, storeKeySessionToken, storeKeyUser}

// SecretStore is the process-wide key-value store holding tokens and the
// cached user across restarts. Implementations must make Delete atomic
// relative to concurrent Set calls: a clear must never interleave with a
// credential write in a way that leaves a partial token set behind.
type SecretStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys in a single step. Absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// MemoryStore is a mutex-guarded in-memory SecretStore. The zero value is
// ready to use. It is the default store and the one tests reach for.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Get implements SecretStore.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements SecretStore.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

// Delete implements SecretStore.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// FileStore persists secrets as a single JSON file with 0600 permissions,
// the way CLI token caches do. Every mutation rewrites the whole file under
// one lock, so Delete of all keys is atomic relative to any concurrent Set.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates the parent directory if needed and returns a store
// backed by the given file. The file itself is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("sdk: file store path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

// Get implements SecretStore.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements SecretStore.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Delete implements SecretStore.
func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	// Write-then-rename keeps a crash from truncating the token file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
