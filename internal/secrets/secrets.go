// Package secrets abstracts platform secret storage behind a single
// capability interface with pluggable backends: the macOS keychain, the
// freedesktop secret service, and an encrypted-file fallback.
package secrets

import (
	"runtime"

	"github.com/simplemotion/m365-mcp/internal/logger"
)

// Account scopes every entry this server writes into a platform store.
const Account = "m365-mcp"

// Store is the secret persistence capability. Absence is a normal value, not
// an error: Get reports it through the second return, Delete of a missing
// entry succeeds.
type Store interface {
	// Set stores a value under name, replacing any existing entry.
	Set(name, value string) error
	// Get retrieves the value stored under name. The bool is false when no
	// entry exists.
	Get(name string) (string, bool)
	// Delete removes the entry stored under name. Deleting an absent entry
	// is a no-op.
	Delete(name string) error
}

// Open selects a backend for the current platform. Platforms without a
// native store, and platforms whose helper binary is missing, fall back to
// the encrypted file store under dir so the server degrades to
// "not configured" rather than failing.
func Open(dir string) Store {
	switch runtime.GOOS {
	case "darwin":
		if keychainAvailable() {
			return NewKeychain()
		}
	case "linux":
		if secretToolAvailable() {
			return NewSecretService()
		}
	}
	logger.Debug("no platform secret store available, using encrypted file store", "dir", dir)
	return NewFileStore(dir)
}
