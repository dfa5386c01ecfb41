// Package graph is a thin caller for the Microsoft Graph REST API. It
// resolves the acting-as path per profile, paces requests through a rate
// limiter, retries throttled calls, and maps status codes onto a small error
// taxonomy. Operation wrappers stay mechanical: request in, raw JSON out.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/logger"
)

const (
	// BaseURL is the Graph v1.0 endpoint.
	BaseURL = "https://graph.microsoft.com/v1.0"

	// maxAttempts bounds throttling retries per call.
	maxAttempts = 3

	// userPlaceholder in a request path is replaced with the acting-as
	// segment: /me for delegated tokens, /users/{email} otherwise.
	userPlaceholder = "{user}"
)

// TokenSource supplies a valid token for a profile. Satisfied by
// *auth.Engine.
type TokenSource interface {
	GetValidToken(ctx context.Context, profile string) (*auth.Record, error)
}

// Options tunes a Client. Zero values select defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit RateLimitConfig
}

// Client executes Graph requests on behalf of a profile.
type Client struct {
	tokens  TokenSource
	http    *http.Client
	base    string
	limiter *RateLimiter
}

// NewClient creates a Graph client over the given token source.
func NewClient(tokens TokenSource, opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = BaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
		base:    strings.TrimRight(base, "/"),
		limiter: NewRateLimiter(opts.RateLimit),
	}
}

// Request describes one Graph call. Path is relative to the API base and may
// contain the {user} placeholder for user-scoped resources.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	IfMatch string
}

// Do executes the request and returns the raw response body. 2xx responses
// with no body return nil. Throttled calls are retried up to maxAttempts,
// honouring Retry-After.
func (c *Client) Do(ctx context.Context, profile string, req Request) (json.RawMessage, error) {
	record, err := c.tokens.GetValidToken(ctx, profile)
	if err != nil {
		return nil, err
	}

	path := req.Path
	if strings.Contains(path, userPlaceholder) {
		segment, err := actingAs(record)
		if err != nil {
			return nil, err
		}
		path = strings.Replace(path, userPlaceholder, segment, 1)
	}

	target := c.base + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+record.AccessToken)
		httpReq.Header.Set("Accept", "application/json")
		if req.Body != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if req.IfMatch != "" {
			httpReq.Header.Set("If-Match", req.IfMatch)
		}

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("graph request: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read graph response: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			c.limiter.RecordRateLimitError(retryAfter)
			logger.Debug("graph throttled", "profile", profile, "path", req.Path, "attempt", attempt)
			lastErr = newAPIError(resp.StatusCode, body)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newAPIError(resp.StatusCode, body)
		}
		if len(body) == 0 {
			return nil, nil
		}
		return body, nil
	}
	return nil, lastErr
}

// Get is shorthand for a GET request.
func (c *Client) Get(ctx context.Context, profile, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, profile, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post is shorthand for a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, profile, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, profile, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch is shorthand for a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, profile, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, profile, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete is shorthand for a DELETE request.
func (c *Client) Delete(ctx context.Context, profile, path string) (json.RawMessage, error) {
	return c.Do(ctx, profile, Request{Method: http.MethodDelete, Path: path})
}

// actingAs resolves the path segment user-scoped resources hang off of.
// Delegated tokens act as the signed-in user; app-only tokens act as the
// profile's configured target user.
func actingAs(record *auth.Record) (string, error) {
	if record.Delegated() {
		return "/me", nil
	}
	if record.UserEmail == "" {
		return "", fmt.Errorf("graph: app-only profile has no target user; set the user-id credential field")
	}
	return "/users/" + url.PathEscape(record.UserEmail), nil
}

// listResponse is the OData collection envelope.
type listResponse struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}
