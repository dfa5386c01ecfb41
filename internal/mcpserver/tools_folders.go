package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type createFolderInput struct {
	Name     string `json:"name" jsonschema:"display name of the new folder"`
	ParentID string `json:"parent_id,omitempty" jsonschema:"parent folder ID, omit for a top-level folder"`
}

type moveMessageInput struct {
	MessageID     string `json:"message_id" jsonschema:"message to move"`
	DestinationID string `json:"destination_id" jsonschema:"target folder name or ID"`
}

type markReadInput struct {
	MessageID string `json:"message_id" jsonschema:"message ID"`
	Read      bool   `json:"read" jsonschema:"true to mark read, false to mark unread"`
}

func (s *Server) registerFolderTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_folders",
		Description: "List mail folders with item counts.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in emptyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_folders", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListFolders(ctx, profile)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_create_folder",
		Description: "Create a mail folder, optionally nested under a parent.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in createFolderInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_create_folder", func(ctx context.Context, profile string) (any, error) {
			return s.graph.CreateFolder(ctx, profile, in.Name, in.ParentID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_move_message",
		Description: "Move a message to another folder.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in moveMessageInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_move_message", func(ctx context.Context, profile string) (any, error) {
			return s.graph.MoveMessage(ctx, profile, in.MessageID, in.DestinationID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_delete_message",
		Description: "Delete a message, moving it to Deleted Items when possible.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in messageIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_delete_message", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.DeleteMessage(ctx, profile, in.MessageID); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true}, nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_mark_read",
		Description: "Set a message's read flag.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in markReadInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_mark_read", func(ctx context.Context, profile string) (any, error) {
			return s.graph.MarkRead(ctx, profile, in.MessageID, in.Read)
		})
	})
}
