package auth

import "time"

// expiryMargin is subtracted from the upstream expires_in at mint time, so
// expiry checks are plain instant comparisons with no read-side buffer.
const expiryMargin = 5 * time.Minute

// Record holds one profile's tokens and resolved identity. Records are
// overwritten wholesale on every acquisition, never partially mutated.
type Record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope"`
	UserEmail    string    `json:"user_email,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
}

// Expired reports whether the access token is past its stored expiry. A zero
// expiry counts as expired.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt.IsZero() || !now.Before(r.ExpiresAt)
}

// Delegated reports whether the record came from a delegated (device-code)
// grant. App-only grants never return refresh tokens.
func (r *Record) Delegated() bool {
	return r.RefreshToken != ""
}

// newRecord builds a Record from a token endpoint response, applying the
// expiry margin.
func newRecord(resp *tokenResponse, now time.Time, defaultScope string) *Record {
	expiresIn := resp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	scope := resp.Scope
	if scope == "" {
		scope = defaultScope
	}
	return &Record{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    now.Add(time.Duration(expiresIn)*time.Second - expiryMargin),
		Scope:        scope,
	}
}
