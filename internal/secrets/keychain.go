package secrets

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// security(1) lookups occasionally hang on a locked keychain; bound them.
const keychainTimeout = 5 * time.Second

// Keychain stores secrets as generic passwords in the macOS keychain via the
// security command line tool.
type Keychain struct{}

// NewKeychain creates a keychain-backed store.
func NewKeychain() *Keychain {
	return &Keychain{}
}

func keychainAvailable() bool {
	_, err := exec.LookPath("security")
	return err == nil
}

// Set stores value under name, replacing any existing entry.
func (k *Keychain) Set(name, value string) error {
	out, err := run("security", "add-generic-password",
		"-a", Account, "-s", name, "-w", value, "-U")
	if err != nil {
		return fmt.Errorf("keychain add %s: %s", name, strings.TrimSpace(out))
	}
	return nil
}

// Get retrieves the value stored under name.
func (k *Keychain) Get(name string) (string, bool) {
	out, err := run("security", "find-generic-password",
		"-a", Account, "-s", name, "-w")
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(out)
	return value, value != ""
}

// Delete removes the entry stored under name.
func (k *Keychain) Delete(name string) error {
	// Missing entries make security exit nonzero; that is a successful delete.
	_, _ = run("security", "delete-generic-password",
		"-a", Account, "-s", name)
	return nil
}

func run(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keychainTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if ctx.Err() != nil {
		return "", fmt.Errorf("%s timed out", name)
	}
	return string(out), err
}
