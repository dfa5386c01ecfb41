package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type chatIDInput struct {
	ChatID string `json:"chat_id" jsonschema:"chat ID"`
}

type chatMessagesInput struct {
	ChatID string `json:"chat_id" jsonschema:"chat ID"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum messages to return"`
}

type sendChatMessageInput struct {
	ChatID  string `json:"chat_id" jsonschema:"chat ID"`
	Content string `json:"content" jsonschema:"message text"`
}

type searchChatInput struct {
	Query     string `json:"query" jsonschema:"text to search for"`
	ChatLimit int    `json:"chat_limit,omitempty" jsonschema:"maximum chats to scan"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum matches to return"`
}

func (s *Server) registerChatTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_chats",
		Description: "List the user's Teams chats with members.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in limitInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_chats", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListChats(ctx, profile, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_chat",
		Description: "Get a single chat with its members.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in chatIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_chat", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetChat(ctx, profile, in.ChatID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_chat_messages",
		Description: "Get a chat's messages, newest first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in chatMessagesInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_chat_messages", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetChatMessages(ctx, profile, in.ChatID, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_send_chat_message",
		Description: "Send a text message to a Teams chat.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in sendChatMessageInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_send_chat_message", func(ctx context.Context, profile string) (any, error) {
			return s.graph.SendChatMessage(ctx, profile, in.ChatID, in.Content)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_search_chat_messages",
		Description: "Search recent chat messages for a text match. Scans chats one by one, so large mailboxes may be slow.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in searchChatInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_search_chat_messages", func(ctx context.Context, profile string) (any, error) {
			matches, err := s.graph.SearchChatMessages(ctx, profile, in.Query, in.ChatLimit, in.Limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"matches": matches}, nil
		})
	})
}
