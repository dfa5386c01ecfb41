// Package config loads server configuration from a TOML file in the config
// directory, falling back to built-in defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the config directory under the user's home.
const DefaultDirName = ".m365"

// Profile describes one tenant/app-registration context.
type Profile struct {
	// Label is the human-readable description shown in status output.
	Label string `toml:"label"`
	// TargetUser is the default mailbox for app-only flows. The secret store
	// and environment can override it per resolution.
	TargetUser string `toml:"target_user"`
}

// HTTP holds outbound HTTP settings.
type HTTP struct {
	// TimeoutSeconds bounds every token and Graph request.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// DeviceCode holds interactive flow settings.
type DeviceCode struct {
	// TimeoutSeconds is the overall polling budget.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// RateLimit holds Graph throttling settings.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Config is the full server configuration.
type Config struct {
	Profiles   map[string]Profile `toml:"profiles"`
	HTTP       HTTP               `toml:"http"`
	DeviceCode DeviceCode         `toml:"device_code"`
	RateLimit  RateLimit          `toml:"rate_limit"`
}

// Default returns the built-in configuration, matching the profiles the
// server has always shipped with.
func Default() *Config {
	return &Config{
		Profiles: map[string]Profile{
			"SM": {Label: "SimpleMotion (@simplemotion.com)"},
			"SG": {Label: "SimpleMotion Global (@simplemotion.global)"},
		},
		HTTP:       HTTP{TimeoutSeconds: 30},
		DeviceCode: DeviceCode{TimeoutSeconds: 300},
		RateLimit:  RateLimit{RequestsPerSecond: 10.0, Burst: 15},
	}
}

// Dir returns the config directory, creating it with owner-only permissions.
// An empty baseDir selects ~/.m365.
func Dir(baseDir string) (string, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, DefaultDirName)
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return baseDir, nil
}

// Load reads config.toml from dir. A missing file is not an error; defaults
// apply. A present but unparsable file is an error so silent misconfiguration
// cannot slip through.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fileCfg Config
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(fileCfg.Profiles) > 0 {
		cfg.Profiles = fileCfg.Profiles
	}
	if fileCfg.HTTP.TimeoutSeconds > 0 {
		cfg.HTTP.TimeoutSeconds = fileCfg.HTTP.TimeoutSeconds
	}
	if fileCfg.DeviceCode.TimeoutSeconds > 0 {
		cfg.DeviceCode.TimeoutSeconds = fileCfg.DeviceCode.TimeoutSeconds
	}
	if fileCfg.RateLimit.RequestsPerSecond > 0 {
		cfg.RateLimit.RequestsPerSecond = fileCfg.RateLimit.RequestsPerSecond
	}
	if fileCfg.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = fileCfg.RateLimit.Burst
	}

	return cfg, nil
}

// ProfileCodes returns the configured profile codes in sorted order.
func (c *Config) ProfileCodes() []string {
	codes := make([]string, 0, len(c.Profiles))
	for code := range c.Profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
