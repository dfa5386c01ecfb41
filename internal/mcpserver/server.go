// Package mcpserver exposes the Microsoft 365 operations as MCP tools over
// stdio. Every handler resolves the active profile at call time, runs one
// Graph or auth operation, and returns the raw JSON result; failures come
// back as a structured error payload instead of a protocol error.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/graph"
	"github.com/simplemotion/m365-mcp/internal/history"
	"github.com/simplemotion/m365-mcp/internal/logger"
	"github.com/simplemotion/m365-mcp/internal/profile"
)

// Version is stamped into the MCP handshake.
const Version = "1.0.0"

// Server wires the auth engine, Graph client, profile registry, and
// invocation history behind an MCP server.
type Server struct {
	engine   *auth.Engine
	graph    *graph.Client
	profiles *profile.Registry
	history  *history.Store

	mcp *mcp.Server
}

// New creates the server and registers every tool.
func New(engine *auth.Engine, graphClient *graph.Client, profiles *profile.Registry, historyStore *history.Store) *Server {
	s := &Server{
		engine:   engine,
		graph:    graphClient,
		profiles: profiles,
		history:  historyStore,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "m365-mcp",
		Version: Version,
	}, nil)

	s.registerAuthTools()
	s.registerMailTools()
	s.registerDraftTools()
	s.registerFolderTools()
	s.registerContactTools()
	s.registerChatTools()
	s.registerPlannerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled. Stdout carries
// the protocol; all logging goes to stderr.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("mcp server starting", "version", Version, "profile", s.profiles.Active())
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// dispatch runs one tool body against the active profile, records the
// invocation, and renders the outcome.
func (s *Server) dispatch(ctx context.Context, tool string, fn func(ctx context.Context, profile string) (any, error)) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	profileCode := s.profiles.Active()

	payload, err := fn(ctx, profileCode)
	s.record(profileCode, tool, err, time.Since(start))
	if err != nil {
		logger.Warn("tool failed", "tool", tool, "profile", profileCode, "error", err)
		return errorResult(err), nil, nil
	}
	return jsonResult(payload), nil, nil
}

func (s *Server) record(profileCode, tool string, err error, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	entry := &history.Entry{
		Profile:  profileCode,
		Tool:     tool,
		OK:       err == nil,
		Duration: elapsed,
	}
	if err != nil {
		entry.ErrorKind = errorKind(err)
	}
	if recordErr := s.history.Record(entry); recordErr != nil {
		logger.Warn("history record failed", "error", recordErr)
	}
}

// errorKind maps an error onto the payload's kind field.
func errorKind(err error) string {
	if kind := auth.ErrKind(err); kind != "" {
		return string(kind)
	}
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) {
		return "graph_error"
	}
	if errors.Is(err, profile.ErrInvalidProfile) {
		return string(auth.KindInvalidProfile)
	}
	return "internal_error"
}

// errorPayload is the JSON shape of a failed tool call.
type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func errorResult(err error) *mcp.CallToolResult {
	payload := errorPayload{
		Kind:    errorKind(err),
		Message: err.Error(),
	}
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		payload.Message = authErr.Message
		payload.Detail = authErr.Detail
	}
	var apiErr *graph.APIError
	if errors.As(err, &apiErr) {
		payload.Message = apiErr.Message
		payload.Detail = fmt.Sprintf("%s (status %d)", apiErr.Code, apiErr.StatusCode)
	}

	encoded, marshalErr := json.MarshalIndent(map[string]errorPayload{"error": payload}, "", "  ")
	if marshalErr != nil {
		encoded = []byte(`{"error":{"kind":"internal_error","message":"failed to encode error"}}`)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(encoded)}},
	}
}

func jsonResult(payload any) *mcp.CallToolResult {
	if payload == nil {
		payload = map[string]any{"ok": true}
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(encoded)}},
	}
}
