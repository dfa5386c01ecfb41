package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type updateDraftInput struct {
	MessageID string   `json:"message_id" jsonschema:"draft message ID"`
	To        []string `json:"to,omitempty" jsonschema:"recipient addresses"`
	Cc        []string `json:"cc,omitempty" jsonschema:"CC addresses"`
	Bcc       []string `json:"bcc,omitempty" jsonschema:"BCC addresses"`
	Subject   string   `json:"subject,omitempty" jsonschema:"message subject"`
	Body      string   `json:"body,omitempty" jsonschema:"message body"`
	HTML      bool     `json:"html,omitempty" jsonschema:"treat body as HTML"`
}

type limitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum items to return"`
}

func (s *Server) registerDraftTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_create_draft",
		Description: "Create a draft email without sending it.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in sendMessageInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_create_draft", func(ctx context.Context, profile string) (any, error) {
			return s.graph.CreateDraft(ctx, profile, in.message())
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_drafts",
		Description: "List draft emails, newest first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in limitInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_drafts", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListDrafts(ctx, profile, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_update_draft",
		Description: "Update the given fields of an existing draft.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in updateDraftInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_update_draft", func(ctx context.Context, profile string) (any, error) {
			msg := &sendMessageInput{
				To: in.To, Cc: in.Cc, Bcc: in.Bcc,
				Subject: in.Subject, Body: in.Body, HTML: in.HTML,
			}
			return s.graph.UpdateDraft(ctx, profile, in.MessageID, msg.message())
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_delete_draft",
		Description: "Delete a draft email.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in messageIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_delete_draft", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.DeleteDraft(ctx, profile, in.MessageID); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_send_draft",
		Description: "Send a previously saved draft.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in messageIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_send_draft", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.SendDraft(ctx, profile, in.MessageID); err != nil {
				return nil, err
			}
			return map[string]any{"sent": true}, nil
		})
	})
}
