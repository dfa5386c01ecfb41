// Package certs generates and installs self-signed certificates for
// certificate-based app authentication. The public half is exported as a
// .cer file for upload to the app registration; the private key and
// thumbprint land in the secret store under the profile's credential keys.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/logger"
	"github.com/simplemotion/m365-mcp/internal/secrets"
)

const (
	keyBits  = 2048
	validity = 730 * 24 * time.Hour
)

// Certificate is the result of a generation run.
type Certificate struct {
	// Thumbprint is the base64url-encoded SHA-256 digest of the DER
	// certificate, the form Entra expects in the x5t#S256 header.
	Thumbprint string
	// CerPath is where the DER-encoded public certificate was written.
	CerPath string
	// NotAfter is the end of the validity window.
	NotAfter time.Time
}

// Generate creates a self-signed RSA certificate for profile, stores the
// private key and thumbprint in the secret store, and writes the public
// certificate under dir for upload. An existing certificate for the profile
// is overwritten.
func Generate(store secrets.Store, dir, profile, commonName string) (*Certificate, error) {
	if commonName == "" {
		commonName = fmt.Sprintf("m365-mcp-%s", profile)
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	digest := sha256.Sum256(der)
	thumbprint := base64.RawURLEncoding.EncodeToString(digest[:])

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	// The key goes in base64 so keychain round-trips cannot mangle it.
	if err := store.Set(auth.CanonicalKey(profile, auth.FieldCertKey),
		base64.StdEncoding.EncodeToString(keyPEM)); err != nil {
		return nil, fmt.Errorf("store private key: %w", err)
	}
	if err := store.Set(auth.CanonicalKey(profile, auth.FieldCertThumbprint), thumbprint); err != nil {
		return nil, fmt.Errorf("store thumbprint: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create certs dir: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	cerPath := filepath.Join(dir, fmt.Sprintf("m365-%s.cer", profile))
	if err := os.WriteFile(cerPath, certPEM, 0o600); err != nil {
		return nil, fmt.Errorf("write certificate: %w", err)
	}

	logger.Info("generated certificate", "profile", profile, "thumbprint", thumbprint, "path", cerPath)
	return &Certificate{
		Thumbprint: thumbprint,
		CerPath:    cerPath,
		NotAfter:   template.NotAfter,
	}, nil
}

// Remove deletes the profile's certificate material from the secret store
// and the exported .cer file. Missing pieces are ignored.
func Remove(store secrets.Store, dir, profile string) error {
	if err := store.Delete(auth.CanonicalKey(profile, auth.FieldCertKey)); err != nil {
		return fmt.Errorf("delete private key: %w", err)
	}
	if err := store.Delete(auth.CanonicalKey(profile, auth.FieldCertThumbprint)); err != nil {
		return fmt.Errorf("delete thumbprint: %w", err)
	}
	cerPath := filepath.Join(dir, fmt.Sprintf("m365-%s.cer", profile))
	if err := os.Remove(cerPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove certificate file: %w", err)
	}
	return nil
}
