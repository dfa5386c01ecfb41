package graph

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// ListChats returns the user's chats with member details.
func (c *Client) ListChats(ctx context.Context, profile string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	query.Set("$expand", "members")
	return c.Get(ctx, profile, "{user}/chats", query)
}

// GetChat fetches one chat with member details.
func (c *Client) GetChat(ctx context.Context, profile, chatID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$expand", "members")
	return c.Get(ctx, profile, "{user}/chats/"+url.PathEscape(chatID), query)
}

// GetChatMessages returns a chat's messages, newest first.
func (c *Client) GetChatMessages(ctx context.Context, profile, chatID string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	return c.Get(ctx, profile, "{user}/chats/"+url.PathEscape(chatID)+"/messages", query)
}

// SendChatMessage posts a text message to a chat.
func (c *Client) SendChatMessage(ctx context.Context, profile, chatID, content string) (json.RawMessage, error) {
	return c.Post(ctx, profile, "/chats/"+url.PathEscape(chatID)+"/messages",
		map[string]any{
			"body": map[string]any{"content": content},
		})
}

// ChatMatch is one hit from a client-side chat search.
type ChatMatch struct {
	ChatID  string          `json:"chatId"`
	Message json.RawMessage `json:"message"`
}

// SearchChatMessages scans the user's chats for messages containing the
// query. The search runs client-side because Graph's getAllMessages needs
// delegated auth the app-only profiles do not have. chatLimit bounds how many
// chats are scanned; limit bounds the hits returned.
func (c *Client) SearchChatMessages(ctx context.Context, profile, search string, chatLimit, limit int) ([]ChatMatch, error) {
	if chatLimit <= 0 {
		chatLimit = 20
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	needle := strings.ToLower(search)

	chatsRaw, err := c.ListChats(ctx, profile, chatLimit)
	if err != nil {
		return nil, err
	}
	var chats listResponse
	if err := json.Unmarshal(chatsRaw, &chats); err != nil {
		return nil, err
	}

	matches := make([]ChatMatch, 0)
	for _, chatRaw := range chats.Value {
		var chat struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(chatRaw, &chat); err != nil || chat.ID == "" {
			continue
		}

		messagesRaw, err := c.GetChatMessages(ctx, profile, chat.ID, 50)
		if err != nil {
			// A single inaccessible chat should not sink the search.
			continue
		}
		var messages listResponse
		if err := json.Unmarshal(messagesRaw, &messages); err != nil {
			continue
		}

		for _, messageRaw := range messages.Value {
			var message struct {
				Body struct {
					Content string `json:"content"`
				} `json:"body"`
			}
			if err := json.Unmarshal(messageRaw, &message); err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(message.Body.Content), needle) {
				matches = append(matches, ChatMatch{ChatID: chat.ID, Message: messageRaw})
				if len(matches) >= limit {
					return matches, nil
				}
			}
		}
	}
	return matches, nil
}
