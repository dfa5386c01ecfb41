package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// assertionLifetime bounds a client assertion. Assertions are minted fresh
// for every authentication attempt and never persisted.
const assertionLifetime = 10 * time.Minute

// buildClientAssertion signs the RS256 JWT that stands in for a client
// secret in the certificate flow. The header carries the certificate's
// SHA-256 thumbprint as x5t#S256; the audience is the tenant token endpoint.
func buildClientAssertion(creds *CredentialSet, tokenURL string, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(creds.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	claims := jwt.MapClaims{
		"iss": creds.ClientID,
		"sub": creds.ClientID,
		"aud": tokenURL,
		"jti": uuid.NewString(),
		"nbf": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["x5t#S256"] = creds.CertThumbprint

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}
