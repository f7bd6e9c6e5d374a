package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	fileVersion = 1
	fileName    = "storage.json"
)

type fileData struct {
	Version int               `json:"version"`
	Items   map[string]string `json:"items"`
}

// File is a durable Storage kept in a single JSON document on disk.
type File struct {
	mu      sync.Mutex
	baseDir string
	log     zerolog.Logger
}

var _ Storage = (*File)(nil)

// FileOption configures a File.
type FileOption func(*File)

// WithLogger sets the logger used by the file store.
func WithLogger(log zerolog.Logger) FileOption {
	return func(f *File) {
		f.log = log
	}
}

// NewFile creates a durable store in baseDir.
// If baseDir is empty, uses ~/.storefront/storage/
func NewFile(baseDir string, opts ...FileOption) (*File, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".storefront", "storage")
	}

	// holds bearer credentials, owner only
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f := &File{baseDir: baseDir, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}

	f.log.Debug().Str("baseDir", baseDir).Msg("durable storage initialized")

	return f, nil
}

// Dir returns the directory holding the store.
func (f *File) Dir() string {
	return f.baseDir
}

func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", err
	}

	v, ok := data.Items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}

	data.Items[key] = value
	return f.save(data)
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := data.Items[key]; !ok {
		return nil
	}

	delete(data.Items, key)
	return f.save(data)
}

func (f *File) path() string {
	return filepath.Join(f.baseDir, fileName)
}

// load reads the store, returning an empty document if none was written yet.
func (f *File) load() (*fileData, error) {
	raw, err := os.ReadFile(f.path())
	if os.IsNotExist(err) {
		return &fileData{Version: fileVersion, Items: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse storage: %w", err)
	}

	if data.Items == nil {
		data.Items = map[string]string{}
	}

	return &data, nil
}

// save writes the store atomically.
func (f *File) save(data *fileData) error {
	data.Version = fileVersion

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	target := f.path()
	tempPath := target + ".tmp"

	if err := os.WriteFile(tempPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save storage: %w", err)
	}

	return nil
}
