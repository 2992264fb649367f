// Package store provides durable key/value persistence for small blobs such
// as the cached location and the unit preference.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Load when the key was never saved.
var ErrNotFound = errors.New("store: key not found")

// Store persists opaque values under string keys.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// errCorrupt marks a state file that exists but cannot be decoded.
var errCorrupt = errors.New("corrupt state file")

// FileStore keeps all keys in a single JSON object on disk. Every Save
// rewrites the file through a temp file and rename. A corrupt file fails
// Load but is replaced by the next Save or Delete.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithLogger sets the logger used to report a replaced corrupt file.
func WithLogger(logger *slog.Logger) FileOption {
	return func(f *FileStore) { f.logger = logger }
}

// NewFileStore returns a store backed by path. The file is created on first Save.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.read()
	if err != nil {
		return nil, err
	}
	v, ok := data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (f *FileStore) Save(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, _, err := f.readForUpdate()
	if err != nil {
		return err
	}
	data[key] = string(value)
	return f.write(data)
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, replaced, err := f.readForUpdate()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok && !replaced {
		return nil
	}
	delete(data, key)
	return f.write(data)
}

func (f *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	data := make(map[string]string)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w: %w", f.path, errCorrupt, err)
	}
	return data, nil
}

// readForUpdate is read for callers about to rewrite the file: a corrupt
// file is discarded and the write starts from an empty map. replaced
// reports whether that happened.
func (f *FileStore) readForUpdate() (data map[string]string, replaced bool, err error) {
	data, err = f.read()
	if errors.Is(err, errCorrupt) {
		f.logger.Warn("replacing corrupt state file", "path", f.path, "error", err)
		return make(map[string]string), true, nil
	}
	return data, false, err
}

func (f *FileStore) write(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
