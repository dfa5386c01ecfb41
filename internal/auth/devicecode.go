package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/simplemotion/m365-mcp/internal/logger"
)

// DevicePrompt carries what the operator needs to complete a device-code
// sign-in in their browser.
type DevicePrompt struct {
	UserCode        string
	VerificationURI string
	Message         string
	ExpiresIn       int
}

// ConnectOptions tunes an interactive sign-in.
type ConnectOptions struct {
	// OnPrompt is invoked once with the code to show the operator. Required
	// for any interactive use; a nil callback only makes sense in tests.
	OnPrompt func(*DevicePrompt)
	// Timeout overrides the engine's polling budget when positive.
	Timeout time.Duration
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// Connect runs the device-code flow for profile: requests a code, hands it
// to OnPrompt, then polls the token endpoint until the operator approves,
// declines, or the budget runs out. On success the delegated record is
// persisted and returned.
func (e *Engine) Connect(ctx context.Context, profile string, opts ConnectOptions) (*Record, error) {
	lock := e.profileLock(profile)
	lock.Lock()
	defer lock.Unlock()

	creds := e.resolver.Resolve(profile, nil)
	// Device code is a public-client flow: only the app and tenant identity
	// are needed, never a secret or certificate.
	if creds.ClientID == "" || creds.TenantID == "" {
		return nil, credentialsMissing(profile, creds)
	}

	endpoint := e.endpointFor(creds.TenantID)

	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("scope", strings.Join(deviceScopes, " "))

	device, err := e.deviceCodeRequest(ctx, endpoint.DeviceAuthURL, form)
	if err != nil {
		return nil, err
	}

	if opts.OnPrompt != nil {
		opts.OnPrompt(&DevicePrompt{
			UserCode:        device.UserCode,
			VerificationURI: device.VerificationURI,
			Message:         device.Message,
			ExpiresIn:       device.ExpiresIn,
		})
	}

	record, err := e.pollDeviceToken(ctx, profile, creds, endpoint.TokenURL, device, opts.Timeout)
	if err != nil {
		return nil, err
	}

	e.fetchUserIdentity(ctx, record)

	if err := e.cache.Save(profile, record); err != nil {
		return nil, fmt.Errorf("persist token record: %w", err)
	}
	logger.Info("connected", "profile", profile, "user", record.UserEmail)
	return record, nil
}

func (e *Engine) deviceCodeRequest(ctx context.Context, deviceAuthURL string, form url.Values) (*deviceCodeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create device code request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &Error{
			Kind:    KindAuthenticationFailed,
			Message: "device code request",
			Detail:  err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read device code response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:    KindAuthenticationFailed,
			Message: fmt.Sprintf("device code endpoint returned %d", resp.StatusCode),
			Detail:  string(body),
		}
	}

	var device deviceCodeResponse
	if err := json.Unmarshal(body, &device); err != nil {
		return nil, fmt.Errorf("decode device code response: %w", err)
	}
	if device.DeviceCode == "" || device.UserCode == "" {
		return nil, &Error{
			Kind:    KindAuthenticationFailed,
			Message: "device code endpoint returned an incomplete response",
			Detail:  string(body),
		}
	}
	return &device, nil
}

// pollDeviceToken polls until a terminal outcome. authorization_pending keeps
// the current interval; slow_down widens it; everything else ends the flow.
func (e *Engine) pollDeviceToken(ctx context.Context, profile string, creds *CredentialSet, tokenURL string, device *deviceCodeResponse, timeout time.Duration) (*Record, error) {
	if timeout <= 0 {
		timeout = e.deviceTimeout
	}
	interval := time.Duration(device.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := e.now().Add(timeout)

	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("grant_type", deviceCodeGrant)
	form.Set("device_code", device.DeviceCode)

	for {
		if err := e.sleep(ctx, interval); err != nil {
			return nil, err
		}
		if e.now().After(deadline) {
			return nil, newError(KindDeviceCodeTimeout,
				"sign-in for profile %q was not completed within %s", profile, timeout)
		}

		resp, body, err := e.tokenPost(ctx, tokenURL, form)
		if err != nil {
			return nil, &Error{
				Kind:    KindAuthenticationFailed,
				Message: fmt.Sprintf("device token poll for profile %q", profile),
				Detail:  err.Error(),
			}
		}

		switch resp.ErrorCode {
		case "":
			if resp.AccessToken == "" {
				return nil, &Error{
					Kind:    KindAuthenticationFailed,
					Message: "token endpoint returned no access token",
					Detail:  string(body),
				}
			}
			return newRecord(resp, e.now(), strings.Join(deviceScopes, " ")), nil
		case "authorization_pending":
			continue
		case "slow_down":
			interval += e.slowDownStep
			logger.Debug("token endpoint asked to slow down", "interval", interval)
		case "expired_token":
			return nil, newError(KindDeviceCodeExpired,
				"the device code for profile %q expired before sign-in completed; run m365_connect again", profile)
		case "authorization_declined":
			return nil, newError(KindAuthorizationDeclined,
				"sign-in for profile %q was declined", profile)
		default:
			return nil, &Error{
				Kind:    KindAuthenticationFailed,
				Message: fmt.Sprintf("device token poll failed with %q", resp.ErrorCode),
				Detail:  resp.ErrorDescription,
			}
		}
	}
}

// fetchUserIdentity annotates a fresh delegated record with the signed-in
// user's name and address. Failures are logged and otherwise ignored; the
// token itself is already good.
func (e *Engine) fetchUserIdentity(ctx context.Context, record *Record) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.graphBase+"/me?$select=displayName,mail,userPrincipalName", nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+record.AccessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		logger.Debug("user identity fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Debug("user identity fetch failed", "status", resp.StatusCode)
		return
	}

	var me struct {
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return
	}
	record.UserName = me.DisplayName
	record.UserEmail = me.Mail
	if record.UserEmail == "" {
		record.UserEmail = me.UserPrincipalName
	}
}
