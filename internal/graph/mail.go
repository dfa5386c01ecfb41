package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// messageSelect trims list responses to the fields the tools surface.
const messageSelect = "id,subject,bodyPreview,from,toRecipients,ccRecipients," +
	"receivedDateTime,sentDateTime,isRead,isDraft,hasAttachments,conversationId,parentFolderId"

const defaultPageSize = 25

func pageSize(limit int) string {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > 100 {
		limit = 100
	}
	return strconv.Itoa(limit)
}

// ListMessages returns messages from a folder, newest first. folderID may be
// a well-known name (inbox, sentitems, drafts) or a folder ID; empty means
// inbox.
func (c *Client) ListMessages(ctx context.Context, profile, folderID string, limit int) (json.RawMessage, error) {
	if folderID == "" {
		folderID = "inbox"
	}
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	query.Set("$select", messageSelect)
	query.Set("$orderby", "receivedDateTime desc")
	return c.Get(ctx, profile, "{user}/mailFolders/"+url.PathEscape(folderID)+"/messages", query)
}

// SearchMessages runs a $search query across the mailbox.
func (c *Client) SearchMessages(ctx context.Context, profile, search string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	query.Set("$select", messageSelect)
	query.Set("$search", strconv.Quote(search))
	return c.Get(ctx, profile, "{user}/messages", query)
}

// GetMessage fetches a single message with its full body.
func (c *Client) GetMessage(ctx context.Context, profile, messageID string) (json.RawMessage, error) {
	return c.Get(ctx, profile, "{user}/messages/"+url.PathEscape(messageID), nil)
}

// GetThread returns the messages sharing a conversation, oldest first.
func (c *Client) GetThread(ctx context.Context, profile, conversationID string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", pageSize(limit))
	query.Set("$select", messageSelect)
	query.Set("$filter", fmt.Sprintf("conversationId eq '%s'", conversationID))
	return c.Get(ctx, profile, "{user}/messages", query)
}

// GetAttachments lists a message's attachments without their content bytes.
func (c *Client) GetAttachments(ctx context.Context, profile, messageID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$select", "id,name,contentType,size,isInline")
	return c.Get(ctx, profile, "{user}/messages/"+url.PathEscape(messageID)+"/attachments", query)
}

// Message is an outgoing mail payload.
type Message struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	HTML    bool
}

func recipients(addresses []string) []map[string]any {
	out := make([]map[string]any, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, map[string]any{
			"emailAddress": map[string]any{"address": address},
		})
	}
	return out
}

func (m *Message) payload() map[string]any {
	contentType := "Text"
	if m.HTML {
		contentType = "HTML"
	}
	message := map[string]any{
		"subject":      m.Subject,
		"body":         map[string]any{"contentType": contentType, "content": m.Body},
		"toRecipients": recipients(m.To),
	}
	if len(m.Cc) > 0 {
		message["ccRecipients"] = recipients(m.Cc)
	}
	if len(m.Bcc) > 0 {
		message["bccRecipients"] = recipients(m.Bcc)
	}
	return message
}

// SendMessage sends mail immediately, saving a copy to Sent Items.
func (c *Client) SendMessage(ctx context.Context, profile string, msg *Message) error {
	_, err := c.Post(ctx, profile, "{user}/sendMail", map[string]any{
		"message":         msg.payload(),
		"saveToSentItems": true,
	})
	return err
}

// Reply replies to a message. replyAll includes every original recipient.
func (c *Client) Reply(ctx context.Context, profile, messageID, comment string, replyAll bool) error {
	action := "/reply"
	if replyAll {
		action = "/replyAll"
	}
	_, err := c.Post(ctx, profile, "{user}/messages/"+url.PathEscape(messageID)+action,
		map[string]any{"comment": comment})
	return err
}

// Forward forwards a message to the given recipients.
func (c *Client) Forward(ctx context.Context, profile, messageID string, to []string, comment string) error {
	_, err := c.Post(ctx, profile, "{user}/messages/"+url.PathEscape(messageID)+"/forward",
		map[string]any{
			"comment":      comment,
			"toRecipients": recipients(to),
		})
	return err
}

// CreateDraft saves a new draft without sending it.
func (c *Client) CreateDraft(ctx context.Context, profile string, msg *Message) (json.RawMessage, error) {
	return c.Post(ctx, profile, "{user}/messages", msg.payload())
}

// ListDrafts returns the drafts folder, newest first.
func (c *Client) ListDrafts(ctx context.Context, profile string, limit int) (json.RawMessage, error) {
	return c.ListMessages(ctx, profile, "drafts", limit)
}

// UpdateDraft patches an existing draft. Only the message's non-zero fields
// are sent so untouched fields survive.
func (c *Client) UpdateDraft(ctx context.Context, profile, messageID string, msg *Message) (json.RawMessage, error) {
	payload := map[string]any{}
	if msg.Subject != "" {
		payload["subject"] = msg.Subject
	}
	if msg.Body != "" {
		contentType := "Text"
		if msg.HTML {
			contentType = "HTML"
		}
		payload["body"] = map[string]any{"contentType": contentType, "content": msg.Body}
	}
	if len(msg.To) > 0 {
		payload["toRecipients"] = recipients(msg.To)
	}
	if len(msg.Cc) > 0 {
		payload["ccRecipients"] = recipients(msg.Cc)
	}
	if len(msg.Bcc) > 0 {
		payload["bccRecipients"] = recipients(msg.Bcc)
	}
	return c.Patch(ctx, profile, "{user}/messages/"+url.PathEscape(messageID), payload)
}

// DeleteDraft removes a draft.
func (c *Client) DeleteDraft(ctx context.Context, profile, messageID string) error {
	_, err := c.Delete(ctx, profile, "{user}/messages/"+url.PathEscape(messageID))
	return err
}

// SendDraft sends a previously saved draft.
func (c *Client) SendDraft(ctx context.Context, profile, messageID string) error {
	_, err := c.Post(ctx, profile, "{user}/messages/"+url.PathEscape(messageID)+"/send", nil)
	return err
}

// ListFolders returns the top-level mail folders.
func (c *Client) ListFolders(ctx context.Context, profile string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("$top", "100")
	query.Set("$select", "id,displayName,parentFolderId,totalItemCount,unreadItemCount")
	return c.Get(ctx, profile, "{user}/mailFolders", query)
}

// CreateFolder creates a mail folder. parentID of "" creates at the root.
func (c *Client) CreateFolder(ctx context.Context, profile, name, parentID string) (json.RawMessage, error) {
	path := "{user}/mailFolders"
	if parentID != "" {
		path = "{user}/mailFolders/" + url.PathEscape(parentID) + "/childFolders"
	}
	return c.Post(ctx, profile, path, map[string]any{"displayName": name})
}

// MoveMessage moves a message into the destination folder.
func (c *Client) MoveMessage(ctx context.Context, profile, messageID, destinationID string) (json.RawMessage, error) {
	return c.Post(ctx, profile, "{user}/messages/"+url.PathEscape(messageID)+"/move",
		map[string]any{"destinationId": destinationID})
}

// DeleteMessage moves a message to Deleted Items, falling back to a hard
// delete when the well-known folder does not resolve for the mailbox.
func (c *Client) DeleteMessage(ctx context.Context, profile, messageID string) error {
	_, err := c.MoveMessage(ctx, profile, messageID, "deleteditems")
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest) {
		_, err = c.Delete(ctx, profile, "{user}/messages/"+url.PathEscape(messageID))
	}
	return err
}

// MarkRead sets a message's read flag.
func (c *Client) MarkRead(ctx context.Context, profile, messageID string, read bool) (json.RawMessage, error) {
	return c.Patch(ctx, profile, "{user}/messages/"+url.PathEscape(messageID),
		map[string]any{"isRead": read})
}
