package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/config"
	"github.com/simplemotion/m365-mcp/internal/graph"
	"github.com/simplemotion/m365-mcp/internal/history"
	"github.com/simplemotion/m365-mcp/internal/profile"
	"github.com/simplemotion/m365-mcp/internal/secrets"
)

func newDispatchServer(t *testing.T) *Server {
	dir := t.TempDir()
	store, err := history.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &Server{
		profiles: profile.NewRegistry(dir, config.Default().Profiles),
		history:  store,
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestDispatch_Success(t *testing.T) {
	s := newDispatchServer(t)

	result, _, err := s.dispatch(context.Background(), "m365_auth_status",
		func(ctx context.Context, profileCode string) (any, error) {
			assert.Equal(t, "SM", profileCode)
			return map[string]any{"profile": profileCode}, nil
		})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"profile":"SM"}`, resultText(t, result))

	entries, err := s.history.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m365_auth_status", entries[0].Tool)
	assert.Equal(t, "SM", entries[0].Profile)
	assert.True(t, entries[0].OK)
}

func TestDispatch_UsesActiveProfile(t *testing.T) {
	s := newDispatchServer(t)
	require.NoError(t, s.profiles.SetActive("SG"))

	var seen string
	_, _, err := s.dispatch(context.Background(), "m365_list_messages",
		func(ctx context.Context, profileCode string) (any, error) {
			seen = profileCode
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "SG", seen)
}

func TestDispatch_RawJSONPassesThrough(t *testing.T) {
	s := newDispatchServer(t)

	raw := json.RawMessage(`{"value":[{"id":"m-1"}]}`)
	result, _, err := s.dispatch(context.Background(), "m365_list_messages",
		func(ctx context.Context, profileCode string) (any, error) {
			return raw, nil
		})
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), resultText(t, result))
}

func TestDispatch_NilPayload(t *testing.T) {
	s := newDispatchServer(t)

	result, _, err := s.dispatch(context.Background(), "m365_disconnect",
		func(ctx context.Context, profileCode string) (any, error) {
			return nil, nil
		})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, resultText(t, result))
}

func TestDispatch_AuthErrorPayload(t *testing.T) {
	s := newDispatchServer(t)

	result, _, err := s.dispatch(context.Background(), "m365_list_messages",
		func(ctx context.Context, profileCode string) (any, error) {
			return nil, &auth.Error{
				Kind:    auth.KindCredentialsMissing,
				Message: "profile \"SM\" is missing: client_id",
				Detail:  "store it with credentials set",
			}
		})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var payload struct {
		Error errorPayload `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, "credentials_missing", payload.Error.Kind)
	assert.Contains(t, payload.Error.Message, "client_id")
	assert.Equal(t, "store it with credentials set", payload.Error.Detail)

	entries, err := s.history.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
	assert.Equal(t, "credentials_missing", entries[0].ErrorKind)
}

func TestDispatch_GraphErrorPayload(t *testing.T) {
	s := newDispatchServer(t)

	result, _, err := s.dispatch(context.Background(), "m365_get_message",
		func(ctx context.Context, profileCode string) (any, error) {
			return nil, &graph.APIError{StatusCode: 404, Code: "ErrorItemNotFound", Message: "not there"}
		})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var payload struct {
		Error errorPayload `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	assert.Equal(t, "graph_error", payload.Error.Kind)
	assert.Equal(t, "not there", payload.Error.Message)
	assert.Contains(t, payload.Error.Detail, "404")
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"auth kind", &auth.Error{Kind: auth.KindDeviceCodeExpired, Message: "x"}, "device_code_expired"},
		{"graph error", &graph.APIError{StatusCode: 403}, "graph_error"},
		{"wrapped graph error", fmt.Errorf("call: %w", &graph.APIError{StatusCode: 500}), "graph_error"},
		{"invalid profile", fmt.Errorf("%w: XX", profile.ErrInvalidProfile), "invalid_profile"},
		{"generic", errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, errorKind(tt.err))
		})
	}
}

func TestNew_RegistersTools(t *testing.T) {
	dir := t.TempDir()
	store, err := history.Open(dir)
	require.NoError(t, err)
	defer store.Close()

	registry := profile.NewRegistry(dir, config.Default().Profiles)
	resolver := auth.NewResolver(secrets.Open(dir))
	engine := auth.NewEngine(resolver, auth.NewCache(dir), auth.Options{})
	client := graph.NewClient(engine, graph.Options{})

	s := New(engine, client, registry, store)
	require.NotNil(t, s.mcp)
}
