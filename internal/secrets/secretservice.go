package secrets

import (
	"fmt"
	"os/exec"
	"strings"
)

// SecretService stores secrets in the freedesktop secret service (GNOME
// Keyring, KWallet) via the secret-tool command line tool.
type SecretService struct{}

// NewSecretService creates a secret-service-backed store.
func NewSecretService() *SecretService {
	return &SecretService{}
}

func secretToolAvailable() bool {
	_, err := exec.LookPath("secret-tool")
	return err == nil
}

// Set stores value under name, replacing any existing entry.
func (s *SecretService) Set(name, value string) error {
	cmd := exec.Command("secret-tool", "store",
		"--label", fmt.Sprintf("%s: %s", Account, name),
		"service", Account, "name", name)
	cmd.Stdin = strings.NewReader(value)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("secret-tool store %s: %s", name, strings.TrimSpace(string(out)))
	}
	return nil
}

// Get retrieves the value stored under name.
func (s *SecretService) Get(name string) (string, bool) {
	out, err := exec.Command("secret-tool", "lookup",
		"service", Account, "name", name).Output()
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(out))
	return value, value != ""
}

// Delete removes the entry stored under name.
func (s *SecretService) Delete(name string) error {
	// secret-tool clear exits nonzero for missing entries; still a success.
	_ = exec.Command("secret-tool", "clear",
		"service", Account, "name", name).Run()
	return nil
}
