package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/simplemotion/m365-mcp/internal/graph"
)

type listMessagesInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"folder name or ID, defaults to inbox"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum messages to return"`
}

type searchMessagesInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum messages to return"`
}

type messageIDInput struct {
	MessageID string `json:"message_id" jsonschema:"message ID"`
}

type threadInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"conversation ID shared by the thread"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum messages to return"`
}

type sendMessageInput struct {
	To      []string `json:"to" jsonschema:"recipient addresses"`
	Cc      []string `json:"cc,omitempty" jsonschema:"CC addresses"`
	Bcc     []string `json:"bcc,omitempty" jsonschema:"BCC addresses"`
	Subject string   `json:"subject" jsonschema:"message subject"`
	Body    string   `json:"body" jsonschema:"message body"`
	HTML    bool     `json:"html,omitempty" jsonschema:"treat body as HTML"`
}

type replyInput struct {
	MessageID string `json:"message_id" jsonschema:"message to reply to"`
	Comment   string `json:"comment" jsonschema:"reply text"`
	ReplyAll  bool   `json:"reply_all,omitempty" jsonschema:"reply to all recipients"`
}

type forwardInput struct {
	MessageID string   `json:"message_id" jsonschema:"message to forward"`
	To        []string `json:"to" jsonschema:"recipient addresses"`
	Comment   string   `json:"comment,omitempty" jsonschema:"text to add above the forwarded message"`
}

func (m *sendMessageInput) message() *graph.Message {
	return &graph.Message{
		To:      m.To,
		Cc:      m.Cc,
		Bcc:     m.Bcc,
		Subject: m.Subject,
		Body:    m.Body,
		HTML:    m.HTML,
	}
}

func (s *Server) registerMailTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_list_messages",
		Description: "List messages in a mail folder, newest first.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in listMessagesInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_list_messages", func(ctx context.Context, profile string) (any, error) {
			return s.graph.ListMessages(ctx, profile, in.Folder, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_search_messages",
		Description: "Search the mailbox for messages matching a query.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in searchMessagesInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_search_messages", func(ctx context.Context, profile string) (any, error) {
			return s.graph.SearchMessages(ctx, profile, in.Query, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_message",
		Description: "Get a single message including its full body.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in messageIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_message", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetMessage(ctx, profile, in.MessageID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_thread",
		Description: "Get the messages in a conversation thread.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in threadInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_thread", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetThread(ctx, profile, in.ConversationID, in.Limit)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_get_attachments",
		Description: "List a message's attachments (metadata only).",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in messageIDInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_get_attachments", func(ctx context.Context, profile string) (any, error) {
			return s.graph.GetAttachments(ctx, profile, in.MessageID)
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_send_message",
		Description: "Send an email immediately, saving a copy to Sent Items.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in sendMessageInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_send_message", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.SendMessage(ctx, profile, in.message()); err != nil {
				return nil, err
			}
			return map[string]any{"sent": true}, nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_reply",
		Description: "Reply to a message, optionally to all recipients.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in replyInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_reply", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.Reply(ctx, profile, in.MessageID, in.Comment, in.ReplyAll); err != nil {
				return nil, err
			}
			return map[string]any{"sent": true}, nil
		})
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "m365_forward",
		Description: "Forward a message to other recipients.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in forwardInput) (*mcp.CallToolResult, any, error) {
		return s.dispatch(ctx, "m365_forward", func(ctx context.Context, profile string) (any, error) {
			if err := s.graph.Forward(ctx, profile, in.MessageID, in.To, in.Comment); err != nil {
				return nil, err
			}
			return map[string]any{"sent": true}, nil
		})
	})
}
