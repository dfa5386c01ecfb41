package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplemotion/m365-mcp/internal/auth"
)

type staticTokens struct {
	mu     sync.Mutex
	record *auth.Record
	err    error
	calls  int
}

func (s *staticTokens) GetValidToken(ctx context.Context, profile string) (*auth.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.record, s.err
}

func delegatedRecord() *auth.Record {
	return &auth.Record{
		AccessToken:  "tok-delegated",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		UserEmail:    "pat@contoso.com",
	}
}

func appOnlyRecord() *auth.Record {
	return &auth.Record{
		AccessToken: "tok-app",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		UserEmail:   "ops@contoso.com",
	}
}

// capturedRequest records what the fake Graph endpoint received.
type capturedRequest struct {
	Method  string
	Path    string
	Query   string
	Body    string
	Headers http.Header
}

type graphServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
	handle   func(w http.ResponseWriter, r *http.Request)
}

func newGraphServer(t *testing.T) *graphServer {
	gs := &graphServer{}
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[]}`))
	}
	gs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gs.mu.Lock()
		gs.requests = append(gs.requests, capturedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Body:    string(body),
			Headers: r.Header.Clone(),
		})
		gs.mu.Unlock()
		gs.handle(w, r)
	}))
	t.Cleanup(gs.server.Close)
	return gs
}

func (gs *graphServer) captured() []capturedRequest {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return append([]capturedRequest(nil), gs.requests...)
}

func newTestClient(t *testing.T, gs *graphServer, record *auth.Record) (*Client, *staticTokens) {
	tokens := &staticTokens{record: record}
	client := NewClient(tokens, Options{
		BaseURL:   gs.server.URL,
		RateLimit: RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	})
	return client, tokens
}

func TestDo_DelegatedActsAsMe(t *testing.T) {
	gs := newGraphServer(t)
	client, tokens := newTestClient(t, gs, delegatedRecord())

	_, err := client.Get(context.Background(), "SM", "{user}/messages", nil)
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/me/messages", reqs[0].Path)
	assert.Equal(t, "Bearer tok-delegated", reqs[0].Headers.Get("Authorization"))
	assert.Equal(t, 1, tokens.calls)
}

func TestDo_AppOnlyActsAsTargetUser(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.Get(context.Background(), "SM", "{user}/messages", nil)
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/users/ops@contoso.com/messages", reqs[0].Path)
}

func TestDo_AppOnlyWithoutTargetUser(t *testing.T) {
	gs := newGraphServer(t)
	record := appOnlyRecord()
	record.UserEmail = ""
	client, _ := newTestClient(t, gs, record)

	_, err := client.Get(context.Background(), "SM", "{user}/messages", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user-id")
	assert.Empty(t, gs.captured())
}

func TestDo_AbsolutePathSkipsActingAs(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, appOnlyRecord())

	_, err := client.Get(context.Background(), "SM", "/planner/tasks/task-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "/planner/tasks/task-1", gs.captured()[0].Path)
}

func TestDo_TokenErrorPropagates(t *testing.T) {
	gs := newGraphServer(t)
	client, tokens := newTestClient(t, gs, nil)
	tokens.err = &auth.Error{Kind: auth.KindCredentialsMissing, Message: "missing"}

	_, err := client.Get(context.Background(), "SM", "{user}/messages", nil)
	require.Error(t, err)
	assert.True(t, auth.IsKind(err, auth.KindCredentialsMissing))
	assert.Empty(t, gs.captured())
}

func TestDo_RetriesThrottledRequests(t *testing.T) {
	gs := newGraphServer(t)
	var hits int
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"m-1"}`))
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	raw, err := client.Get(context.Background(), "SM", "{user}/messages/m-1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m-1"}`, string(raw))
	assert.Len(t, gs.captured(), 3)
}

func TestDo_ThrottlingExhaustsAttempts(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.Get(context.Background(), "SM", "{user}/messages", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Len(t, gs.captured(), maxAttempts)
}

func TestDo_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorised", http.StatusUnauthorized, ErrUnauthorised},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"stale etag", http.StatusPreconditionFailed, ErrConflict},
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"server error", http.StatusServiceUnavailable, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newGraphServer(t)
			gs.handle = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"code":"SomeCode","message":"it broke"}}`))
			}
			client, _ := newTestClient(t, gs, delegatedRecord())

			_, err := client.Get(context.Background(), "SM", "{user}/messages", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "SomeCode", apiErr.Code)
			assert.Equal(t, "it broke", apiErr.Message)
		})
	}
}

func TestDo_NoContentReturnsNil(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	raw, err := client.Delete(context.Background(), "SM", "{user}/messages/m-1")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestDo_EncodesBodyAndIfMatch(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.Do(context.Background(), "SM", Request{
		Method:  http.MethodPatch,
		Path:    "/planner/tasks/task-1",
		Body:    map[string]any{"title": "new title"},
		IfMatch: `W/"etag-1"`,
	})
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, `W/"etag-1"`, reqs[0].Headers.Get("If-Match"))
	assert.Equal(t, "application/json", reqs[0].Headers.Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	assert.Equal(t, "new title", body["title"])
}
