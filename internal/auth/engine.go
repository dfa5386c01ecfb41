// Package auth implements the credential and token lifecycle behind every
// Graph call: resolving per-profile app-registration material, selecting an
// OAuth grant, minting and refreshing tokens, and caching them encrypted on
// disk.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/simplemotion/m365-mcp/internal/logger"
)

const (
	// clientCredentialsScope is the Graph scope for app-only grants.
	clientCredentialsScope = "https://graph.microsoft.com/.default"

	// clientAssertionType marks a signed JWT standing in for a secret.
	clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// deviceCodeGrant is the polling grant of RFC 8628.
	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

	defaultGraphBase = "https://graph.microsoft.com/v1.0"
)

// deviceScopes are requested by the interactive flow. offline_access is what
// yields the refresh token.
var deviceScopes = []string{
	"openid",
	"offline_access",
	"User.Read",
	"Mail.ReadWrite",
	"Mail.Send",
	"Contacts.ReadWrite",
	"Chat.ReadWrite",
	"Tasks.ReadWrite",
	"Group.Read.All",
}

// Options tunes an Engine. Zero values select defaults.
type Options struct {
	// HTTPTimeout bounds each token endpoint exchange.
	HTTPTimeout time.Duration
	// DeviceCodeTimeout is the overall interactive polling budget.
	DeviceCodeTimeout time.Duration
}

// Engine orchestrates grant selection, token acquisition, and refresh. It is
// the only component that raises user-facing authentication errors; the
// resolver and cache below it treat absence as a normal value.
type Engine struct {
	resolver *Resolver
	cache    *Cache

	httpClient  *http.Client
	endpointFor func(tenant string) oauth2.Endpoint
	graphBase   string

	deviceTimeout time.Duration
	slowDownStep  time.Duration

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an engine over the given resolver and token cache.
func NewEngine(resolver *Resolver, cache *Cache, opts Options) *Engine {
	httpTimeout := opts.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	deviceTimeout := opts.DeviceCodeTimeout
	if deviceTimeout <= 0 {
		deviceTimeout = 300 * time.Second
	}
	return &Engine{
		resolver:      resolver,
		cache:         cache,
		httpClient:    &http.Client{Timeout: httpTimeout},
		endpointFor:   microsoft.AzureADEndpoint,
		graphBase:     defaultGraphBase,
		deviceTimeout: deviceTimeout,
		slowDownStep:  5 * time.Second,
		now:           time.Now,
		sleep:         sleepContext,
		locks:         make(map[string]*sync.Mutex),
	}
}

// profileLock returns the per-profile mutex, creating it on first use. All
// token acquisition for one profile is a single critical section: concurrent
// callers finding an expired token wait for one refresh and reuse its result
// instead of racing to mint their own.
func (e *Engine) profileLock(profile string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[profile]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[profile] = lock
	}
	return lock
}

// GetValidToken returns a currently valid token record for profile,
// authenticating or refreshing as needed. A cached, unexpired record is
// returned without any network I/O.
func (e *Engine) GetValidToken(ctx context.Context, profile string) (*Record, error) {
	lock := e.profileLock(profile)
	lock.Lock()
	defer lock.Unlock()

	record, cached := e.cache.Load(profile)
	if cached && !record.Expired(e.now()) {
		return record, nil
	}

	creds := e.resolver.Resolve(profile, nil)

	// Delegated profiles renew via refresh token first. A rejected refresh
	// token is an expected condition, reported as absence, not an error.
	if cached && record.Delegated() {
		if renewed, ok := e.refreshRecord(ctx, profile, creds, record); ok {
			return renewed, nil
		}
		if creds.Mode() == ModeNone {
			return nil, newError(KindAuthenticationFailed,
				"refresh token for profile %q was rejected; run m365_connect to sign in again", profile)
		}
		logger.Debug("refresh failed, falling back to client credentials", "profile", profile)
	}

	if !creds.Configured() {
		return nil, credentialsMissing(profile, creds)
	}

	record, err := e.authenticate(ctx, profile, creds)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Save(profile, record); err != nil {
		return nil, fmt.Errorf("persist token record: %w", err)
	}
	return record, nil
}

// authenticate performs one client-credentials exchange for whichever
// material is configured. Certificate material takes priority over a shared
// secret. The POST is never retried; failures surface immediately.
func (e *Engine) authenticate(ctx context.Context, profile string, creds *CredentialSet) (*Record, error) {
	endpoint := e.endpointFor(creds.TenantID)

	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("grant_type", "client_credentials")
	form.Set("scope", clientCredentialsScope)

	switch creds.Mode() {
	case ModeCertificate:
		assertion, err := buildClientAssertion(creds, endpoint.TokenURL, e.now())
		if err != nil {
			return nil, &Error{
				Kind:    KindAuthenticationFailed,
				Message: fmt.Sprintf("build client assertion for profile %q", profile),
				Detail:  err.Error(),
			}
		}
		form.Set("client_assertion_type", clientAssertionType)
		form.Set("client_assertion", assertion)
	case ModeSecret:
		form.Set("client_secret", creds.ClientSecret)
	default:
		return nil, credentialsMissing(profile, creds)
	}

	logger.Debug("requesting app-only token", "profile", profile, "mode", creds.Mode())

	resp, body, err := e.tokenPost(ctx, endpoint.TokenURL, form)
	if err != nil {
		return nil, &Error{
			Kind:    KindAuthenticationFailed,
			Message: fmt.Sprintf("token request for profile %q", profile),
			Detail:  err.Error(),
		}
	}
	if resp.ErrorCode != "" || resp.AccessToken == "" {
		return nil, &Error{
			Kind:    KindAuthenticationFailed,
			Message: fmt.Sprintf("token endpoint rejected profile %q (%s)", profile, creds.Mode()),
			Detail:  string(body),
		}
	}

	record := newRecord(resp, e.now(), clientCredentialsScope)
	// App-only tokens act as the configured target user.
	record.UserEmail = creds.TargetUser
	return record, nil
}

// refreshRecord renews a delegated record. The bool result is false for any
// failure: an expired refresh token is normal and the caller decides whether
// to fall back or ask the operator to reconnect.
func (e *Engine) refreshRecord(ctx context.Context, profile string, creds *CredentialSet, record *Record) (*Record, bool) {
	if creds.ClientID == "" || creds.TenantID == "" {
		return nil, false
	}

	endpoint := e.endpointFor(creds.TenantID)
	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", record.RefreshToken)
	form.Set("scope", strings.Join(deviceScopes, " "))

	resp, _, err := e.tokenPost(ctx, endpoint.TokenURL, form)
	if err != nil || resp.ErrorCode != "" || resp.AccessToken == "" {
		logger.Debug("refresh token exchange failed", "profile", profile)
		return nil, false
	}

	renewed := newRecord(resp, e.now(), record.Scope)
	// The endpoint may rotate the refresh token; keep the old one otherwise.
	if renewed.RefreshToken == "" {
		renewed.RefreshToken = record.RefreshToken
	}
	renewed.UserEmail = record.UserEmail
	renewed.UserName = record.UserName

	if err := e.cache.Save(profile, renewed); err != nil {
		logger.Warn("persist refreshed token failed", "profile", profile, "error", err)
		return nil, false
	}
	return renewed, true
}

// Disconnect clears the profile's cached tokens. Credentials are untouched.
func (e *Engine) Disconnect(profile string) error {
	lock := e.profileLock(profile)
	lock.Lock()
	defer lock.Unlock()
	return e.cache.Clear(profile)
}

// Status reports the profile's authentication state for display.
type Status struct {
	Profile    string `json:"profile"`
	Configured bool   `json:"configured"`
	AuthMode   Mode   `json:"auth_mode"`
	HasTokens  bool   `json:"has_tokens"`
	Connected  bool   `json:"connected"`
	UserEmail  string `json:"user_email,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`
}

// Status inspects configuration and cache state without any network I/O.
func (e *Engine) Status(profile string) *Status {
	creds := e.resolver.Resolve(profile, nil)
	record, ok := e.cache.Load(profile)

	status := &Status{
		Profile:    profile,
		Configured: creds.Configured(),
		AuthMode:   creds.Mode(),
		HasTokens:  ok,
		UserEmail:  creds.TargetUser,
	}
	if ok {
		status.Connected = !record.Expired(e.now())
		if record.UserEmail != "" {
			status.UserEmail = record.UserEmail
		}
		status.UserName = record.UserName
	}
	if creds.TenantID != "" {
		status.TenantID = truncateTenant(creds.TenantID)
	}
	return status
}

// credentialsMissing builds the operator-facing diagnostic enumerating the
// absent fields and how to provide them.
func credentialsMissing(profile string, creds *CredentialSet) *Error {
	missing := creds.MissingFields()
	return &Error{
		Kind: KindCredentialsMissing,
		Message: fmt.Sprintf(
			"profile %q is missing: %s; store them with 'm365-mcp credentials set %s <field>' or the %s environment variables",
			profile, strings.Join(missing, ", "), profile, EnvVar(profile, "*")),
	}
}

// tokenResponse is the token endpoint's JSON body, successful or not. OAuth
// error responses arrive with 4xx statuses and an error code in the body.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	Scope            string `json:"scope"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// tokenPost performs one form-encoded POST and decodes the body regardless
// of status. Transport failures are returned as-is; OAuth-level failures are
// left in the response for the caller to classify. No internal retries.
func (e *Engine) tokenPost(ctx context.Context, tokenURL string, form url.Values) (*tokenResponse, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read token response: %w", err)
	}

	var decoded tokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, body, fmt.Errorf("decode token response (status %d): %w", resp.StatusCode, err)
	}
	return &decoded, body, nil
}

func truncateTenant(tenant string) string {
	if len(tenant) <= 8 {
		return tenant
	}
	return tenant[:8] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
