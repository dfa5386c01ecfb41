package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/simplemotion/m365-mcp/internal/auth"
	"github.com/simplemotion/m365-mcp/internal/logger"
)

type emptyInput struct{}

type setProfileInput struct {
	Profile string `json:"profile" jsonschema:"profile code to activate"`
}

func (s *Server) registerAuthTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_auth_status",
		Description: "Show authentication status for the active profile: configuration, auth mode, token and connection state, acting user.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_auth_status", func(ctx context.Context, profile string) (any, error) {
			return s.engine.Status(profile), nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_connect",
		Description: "Start an interactive device-code sign-in for the active profile. Returns the code and URL to complete in a browser; sign-in finishes in the background.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_connect", func(ctx context.Context, profile string) (any, error) {
			return s.startConnect(profile)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_disconnect",
		Description: "Clear the active profile's cached tokens. Stored credentials are kept.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_disconnect", func(ctx context.Context, profile string) (any, error) {
			if err := s.engine.Disconnect(profile); err != nil {
				return nil, err
			}
			return map[string]any{"profile": profile, "disconnected": true}, nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_set_profile",
		Description: "Switch the active profile.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in setProfileInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_set_profile", func(ctx context.Context, profile string) (any, error) {
			if err := s.profiles.SetActive(in.Profile); err != nil {
				return nil, err
			}
			return map[string]any{"active_profile": in.Profile}, nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_profiles",
		Description: "List the configured profiles and which one is active.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_profiles", func(ctx context.Context, profile string) (any, error) {
			type profileInfo struct {
				Code   string `json:"code"`
				Label  string `json:"label"`
				Active bool   `json:"active"`
			}
			infos := make([]profileInfo, 0)
			for _, code := range s.profiles.Codes() {
				p, _ := s.profiles.Get(code)
				infos = append(infos, profileInfo{Code: code, Label: p.Label, Active: code == profile})
			}
			return map[string]any{"profiles": infos}, nil
		})
	})
}

// startConnect launches the device-code flow in the background and returns
// once the prompt is available. MCP has no way to stream the code to the
// user mid-call, so polling continues after the tool returns and
// m365_auth_status reports the result.
func (s *Server) startConnect(profileCode string) (any, error) {
	promptCh := make(chan *auth.DevicePrompt, 1)
	errCh := make(chan error, 1)

	go func() {
		_, err := s.engine.Connect(context.Background(), profileCode, auth.ConnectOptions{
			OnPrompt: func(p *auth.DevicePrompt) { promptCh <- p },
		})
		if err != nil {
			logger.Error("device sign-in failed", "profile", profileCode, "error", err)
			errCh <- err
			return
		}
		logger.Info("device sign-in completed", "profile", profileCode)
	}()

	select {
	case prompt := <-promptCh:
		return map[string]any{
			"user_code":        prompt.UserCode,
			"verification_uri": prompt.VerificationURI,
			"message":          prompt.Message,
			"expires_in":       prompt.ExpiresIn,
			"note":             "Complete sign-in in a browser; check m365_auth_status for the result.",
		}, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(30 * time.Second):
		return nil, fmt.Errorf("timed out waiting for a device code")
	}
}
