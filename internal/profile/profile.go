// Package profile tracks the statically configured tenant profiles and the
// process-wide active profile marker.
//
// The marker file is the single source of truth: it is read fresh on every
// call rather than cached, so switches made by another process take effect
// immediately.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/simplemotion/m365-mcp/internal/config"
)

// MarkerFile is the active-profile marker name inside the config directory.
const MarkerFile = "active_profile"

// DefaultCode is preferred when the marker file is absent and the profile
// exists; otherwise the first code in sorted order applies.
const DefaultCode = "SM"

// ErrInvalidProfile indicates a profile code outside the configured set.
// It is rejected before any state is touched.
var ErrInvalidProfile = errors.New("invalid profile")

// Registry holds the configured profile set and the marker file location.
type Registry struct {
	dir      string
	profiles map[string]config.Profile
}

// NewRegistry creates a registry over the configured profiles, with the
// marker file under dir.
func NewRegistry(dir string, profiles map[string]config.Profile) *Registry {
	return &Registry{dir: dir, profiles: profiles}
}

// Codes returns the configured profile codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.profiles))
	for code := range r.profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsValid reports whether code is in the configured set.
func (r *Registry) IsValid(code string) bool {
	_, ok := r.profiles[code]
	return ok
}

// Get returns the profile definition for code.
func (r *Registry) Get(code string) (config.Profile, bool) {
	p, ok := r.profiles[code]
	return p, ok
}

// MarkerPath returns the marker file path.
func (r *Registry) MarkerPath() string {
	return filepath.Join(r.dir, MarkerFile)
}

// Active reads the marker file and returns the active profile code. A
// missing or invalid marker falls back to the default.
func (r *Registry) Active() string {
	data, err := os.ReadFile(r.MarkerPath())
	if err == nil {
		code := strings.TrimSpace(string(data))
		if r.IsValid(code) {
			return code
		}
	}
	if r.IsValid(DefaultCode) {
		return DefaultCode
	}
	codes := r.Codes()
	if len(codes) > 0 {
		return codes[0]
	}
	return ""
}

// SetActive validates code against the configured set and persists it to the
// marker file. Validation failures leave the marker untouched.
func (r *Registry) SetActive(code string) error {
	if !r.IsValid(code) {
		return fmt.Errorf("%w: %q, must be one of: %s",
			ErrInvalidProfile, code, strings.Join(r.Codes(), ", "))
	}
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(r.MarkerPath(), []byte(code), 0o600); err != nil {
		return fmt.Errorf("write active profile: %w", err)
	}
	return nil
}
