package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/simplemotion/m365-mcp/internal/cryptobox"
)

const (
	fileStoreName = "secrets.enc"
	fileKeyName   = ".secrets-key"
)

// FileStore is the fallback backend: a single encrypted JSON map on disk,
// sealed with a key file beside it. Both files are owner-only.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	path string
	key  string
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:  dir,
		path: filepath.Join(dir, fileStoreName),
		key:  filepath.Join(dir, fileKeyName),
	}
}

// Set stores value under name, replacing any existing entry.
func (f *FileStore) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	entries[name] = value
	return f.save(entries)
}

// Get retrieves the value stored under name.
func (f *FileStore) Get(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.load()[name]
	return value, ok && value != ""
}

// Delete removes the entry stored under name.
func (f *FileStore) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.load()
	if _, ok := entries[name]; !ok {
		return nil
	}
	delete(entries, name)
	return f.save(entries)
}

// load reads the store, treating any read/decrypt/parse failure as empty.
func (f *FileStore) load() map[string]string {
	entries := make(map[string]string)

	sealed, err := os.ReadFile(f.path)
	if err != nil {
		return entries
	}
	key, err := cryptobox.LoadOrCreateKey(f.key)
	if err != nil {
		return entries
	}
	plaintext, err := cryptobox.Open(key, sealed)
	if err != nil {
		return entries
	}
	_ = json.Unmarshal(plaintext, &entries)
	return entries
}

func (f *FileStore) save(entries map[string]string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("create secrets directory: %w", err)
	}
	key, err := cryptobox.LoadOrCreateKey(f.key)
	if err != nil {
		return err
	}
	plaintext, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode secrets: %w", err)
	}
	sealed, err := cryptobox.Seal(key, plaintext)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace secrets: %w", err)
	}
	return nil
}
