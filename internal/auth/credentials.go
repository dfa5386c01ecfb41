package auth

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/simplemotion/m365-mcp/internal/secrets"
)

// Credential field names, shared by secret-store keys and env fallbacks.
const (
	FieldClientID       = "client-id"
	FieldClientSecret   = "client-secret"
	FieldTenantID       = "tenant-id"
	FieldUserID         = "user-id"
	FieldCertThumbprint = "cert-thumbprint"
	FieldCertKey        = "cert-key"
	FieldCert           = "cert"
)

// Mode is the grant strategy selected by the configured material.
type Mode string

const (
	// ModeCertificate is client credentials with a signed JWT assertion.
	// Preferred whenever certificate material is present.
	ModeCertificate Mode = "certificate"
	// ModeSecret is client credentials with a shared secret.
	ModeSecret Mode = "secret"
	// ModeNone means no authentication material is configured.
	ModeNone Mode = "none"
)

// CredentialSet is one profile's resolved app-registration material. It is
// resolved fresh on every use and never cached, so external rotation takes
// effect without a restart.
type CredentialSet struct {
	ClientID       string
	TenantID       string
	TargetUser     string
	ClientSecret   string
	CertThumbprint string
	PrivateKeyPEM  []byte
}

// Mode returns the grant strategy the material selects. Certificate wins
// over a shared secret when both are configured.
func (c *CredentialSet) Mode() Mode {
	if c.CertThumbprint != "" && len(c.PrivateKeyPEM) > 0 {
		return ModeCertificate
	}
	if c.ClientSecret != "" {
		return ModeSecret
	}
	return ModeNone
}

// Configured reports whether the set can drive an authentication attempt.
func (c *CredentialSet) Configured() bool {
	return c.ClientID != "" && c.TenantID != "" && c.Mode() != ModeNone
}

// MissingFields enumerates exactly which required pieces are absent. This is
// the primary operator-facing diagnostic.
func (c *CredentialSet) MissingFields() []string {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if c.TenantID == "" {
		missing = append(missing, "tenant_id")
	}
	if c.Mode() == ModeNone {
		missing = append(missing, "client_secret or certificate (thumbprint + private key)")
	}
	return missing
}

// Resolver maps a profile code to a CredentialSet by probing, per field: an
// explicit override, the secret store (canonical then legacy key names), and
// finally the process environment. First non-empty hit wins; sources are
// never merged for a single field beyond that ordering.
//
// Resolution never fails: missing fields resolve to empty and surface later
// through Configured/MissingFields.
type Resolver struct {
	store secrets.Store
	env   func(string) string
}

// NewResolver creates a resolver over the given secret store.
func NewResolver(store secrets.Store) *Resolver {
	return &Resolver{store: store, env: os.Getenv}
}

// Resolve builds the CredentialSet for profile. A non-nil override supplies
// per-field values that take precedence over every other source.
func (r *Resolver) Resolve(profile string, override *CredentialSet) *CredentialSet {
	if override == nil {
		override = &CredentialSet{}
	}

	creds := &CredentialSet{
		ClientID:       r.field(profile, FieldClientID, override.ClientID),
		TenantID:       r.field(profile, FieldTenantID, override.TenantID),
		TargetUser:     r.field(profile, FieldUserID, override.TargetUser),
		ClientSecret:   r.field(profile, FieldClientSecret, override.ClientSecret),
		CertThumbprint: r.field(profile, FieldCertThumbprint, override.CertThumbprint),
	}

	if len(override.PrivateKeyPEM) > 0 {
		creds.PrivateKeyPEM = override.PrivateKeyPEM
	} else if raw := r.field(profile, FieldCertKey, ""); raw != "" {
		creds.PrivateKeyPEM = decodeKeyMaterial(raw)
	}

	return creds
}

// field probes override, store (canonical then legacy name), then env.
func (r *Resolver) field(profile, field, override string) string {
	if override != "" {
		return override
	}
	if value, ok := r.store.Get(CanonicalKey(profile, field)); ok {
		return value
	}
	if legacy := LegacyKey(profile, field); legacy != "" {
		if value, ok := r.store.Get(legacy); ok {
			return value
		}
	}
	return r.env(EnvVar(profile, field))
}

// CanonicalKey is the flat secret-store name: m365-{profile}-{field}.
func CanonicalKey(profile, field string) string {
	return fmt.Sprintf("m365-%s-%s", profile, field)
}

// LegacyKey maps a field to the hierarchical {PROFILE}-M365-{Field} names an
// earlier release wrote. Lookups fall back to it so existing keychains keep
// working; nothing new is ever written under these names.
func LegacyKey(profile, field string) string {
	legacy := map[string]string{
		FieldClientID:       "Client-ID",
		FieldClientSecret:   "Client-Secret",
		FieldTenantID:       "Tenant-ID",
		FieldUserID:         "User-ID",
		FieldCertThumbprint: "Cert-Thumbprint",
		FieldCertKey:        "Cert-Key",
	}
	suffix, ok := legacy[field]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s-M365-%s", strings.ToUpper(profile), suffix)
}

// EnvVar is the environment fallback name: M365_{PROFILE}_{FIELD}.
func EnvVar(profile, field string) string {
	field = strings.ToUpper(strings.ReplaceAll(field, "-", "_"))
	return fmt.Sprintf("M365_%s_%s", strings.ToUpper(profile), field)
}

// decodeKeyMaterial accepts private keys stored either base64-encoded (the
// keychain mangles raw newlines) or as raw PEM.
func decodeKeyMaterial(raw string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil &&
		strings.Contains(string(decoded), "-----BEGIN") {
		return decoded
	}
	return []byte(raw)
}
