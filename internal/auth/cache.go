package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/simplemotion/m365-mcp/internal/cryptobox"
	"github.com/simplemotion/m365-mcp/internal/logger"
)

// Cache is the durable, encrypted, per-profile token store. Each profile
// owns one sealed record file plus a key file beside it, both owner-only.
//
// Load never fails: a missing, corrupt, or undecryptable artifact is a cache
// miss that forces re-authentication, never a crash.
type Cache struct {
	dir string
}

// NewCache creates a token cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) tokenPath(profile string) string {
	return filepath.Join(c.dir, fmt.Sprintf("tokens-%s.enc", profile))
}

func (c *Cache) keyPath(profile string) string {
	return filepath.Join(c.dir, fmt.Sprintf(".key-%s", profile))
}

// Save seals and persists the record, replacing any previous one atomically.
func (c *Cache) Save(profile string, record *Record) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	key, err := cryptobox.LoadOrCreateKey(c.keyPath(profile))
	if err != nil {
		return err
	}
	plaintext, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode token record: %w", err)
	}
	sealed, err := cryptobox.Seal(key, plaintext)
	if err != nil {
		return err
	}

	path := c.tokenPath(profile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write token record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace token record: %w", err)
	}
	return nil
}

// Load returns the stored record for profile, or false when none is usable.
func (c *Cache) Load(profile string) (*Record, bool) {
	sealed, err := os.ReadFile(c.tokenPath(profile))
	if err != nil {
		return nil, false
	}
	key, err := cryptobox.LoadOrCreateKey(c.keyPath(profile))
	if err != nil {
		logger.Debug("token cache key unavailable, treating as miss", "profile", profile)
		return nil, false
	}
	plaintext, err := cryptobox.Open(key, sealed)
	if err != nil {
		logger.Warn("token cache undecryptable, forcing re-authentication", "profile", profile)
		return nil, false
	}
	var record Record
	if err := json.Unmarshal(plaintext, &record); err != nil {
		logger.Warn("token cache unparsable, forcing re-authentication", "profile", profile)
		return nil, false
	}
	return &record, true
}

// Clear removes the persisted record. Clearing an absent cache succeeds.
func (c *Cache) Clear(profile string) error {
	err := os.Remove(c.tokenPath(profile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear token record: %w", err)
	}
	return nil
}

// Exists reports whether a record file is present, without decrypting it.
func (c *Cache) Exists(profile string) bool {
	_, err := os.Stat(c.tokenPath(profile))
	return err == nil
}
