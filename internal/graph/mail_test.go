package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMessages_DefaultsToInbox(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.ListMessages(context.Background(), "SM", "", 0)
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/me/mailFolders/inbox/messages", reqs[0].Path)

	query, err := url.ParseQuery(reqs[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "25", query.Get("$top"))
	assert.Equal(t, "receivedDateTime desc", query.Get("$orderby"))
	assert.Contains(t, query.Get("$select"), "bodyPreview")
}

func TestListMessages_LimitIsCapped(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.ListMessages(context.Background(), "SM", "sentitems", 500)
	require.NoError(t, err)

	query, _ := url.ParseQuery(gs.captured()[0].Query)
	assert.Equal(t, "100", query.Get("$top"))
}

func TestSearchMessages_QuotesSearchTerm(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.SearchMessages(context.Background(), "SM", "quarterly report", 10)
	require.NoError(t, err)

	query, _ := url.ParseQuery(gs.captured()[0].Query)
	assert.Equal(t, `"quarterly report"`, query.Get("$search"))
}

func TestGetThread_FiltersByConversation(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.GetThread(context.Background(), "SM", "conv-1", 0)
	require.NoError(t, err)

	query, _ := url.ParseQuery(gs.captured()[0].Query)
	assert.Equal(t, "conversationId eq 'conv-1'", query.Get("$filter"))
}

func TestSendMessage_Payload(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	err := client.SendMessage(context.Background(), "SM", &Message{
		To:      []string{"a@contoso.com"},
		Cc:      []string{"b@contoso.com"},
		Subject: "hello",
		Body:    "<p>hi</p>",
		HTML:    true,
	})
	require.NoError(t, err)

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/me/sendMail", reqs[0].Path)

	var payload struct {
		Message struct {
			Subject string `json:"subject"`
			Body    struct {
				ContentType string `json:"contentType"`
				Content     string `json:"content"`
			} `json:"body"`
			ToRecipients []struct {
				EmailAddress struct {
					Address string `json:"address"`
				} `json:"emailAddress"`
			} `json:"toRecipients"`
			CcRecipients []json.RawMessage `json:"ccRecipients"`
			BccRecipients []json.RawMessage `json:"bccRecipients"`
		} `json:"message"`
		SaveToSentItems bool `json:"saveToSentItems"`
	}
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &payload))
	assert.Equal(t, "hello", payload.Message.Subject)
	assert.Equal(t, "HTML", payload.Message.Body.ContentType)
	require.Len(t, payload.Message.ToRecipients, 1)
	assert.Equal(t, "a@contoso.com", payload.Message.ToRecipients[0].EmailAddress.Address)
	assert.Len(t, payload.Message.CcRecipients, 1)
	assert.Empty(t, payload.Message.BccRecipients)
	assert.True(t, payload.SaveToSentItems)
}

func TestReply_All(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	require.NoError(t, client.Reply(context.Background(), "SM", "m-1", "thanks", true))
	assert.Equal(t, "/me/messages/m-1/replyAll", gs.captured()[0].Path)
}

func TestSendDraft(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	require.NoError(t, client.SendDraft(context.Background(), "SM", "m-1"))
	reqs := gs.captured()
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/me/messages/m-1/send", reqs[0].Path)
}

func TestDeleteMessage_MovesToDeletedItems(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	require.NoError(t, client.DeleteMessage(context.Background(), "SM", "m-1"))

	reqs := gs.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/me/messages/m-1/move", reqs[0].Path)
	assert.Contains(t, reqs[0].Body, "deleteditems")
}

func TestDeleteMessage_FallsBackToHardDelete(t *testing.T) {
	gs := newGraphServer(t)
	gs.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"ErrorItemNotFound","message":"folder"}}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	client, _ := newTestClient(t, gs, delegatedRecord())

	require.NoError(t, client.DeleteMessage(context.Background(), "SM", "m-1"))

	reqs := gs.captured()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, http.MethodDelete, reqs[1].Method)
	assert.Equal(t, "/me/messages/m-1", reqs[1].Path)
}

func TestMarkRead(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.MarkRead(context.Background(), "SM", "m-1", false)
	require.NoError(t, err)

	reqs := gs.captured()
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.JSONEq(t, `{"isRead":false}`, reqs[0].Body)
}

func TestCreateFolder_NestedUnderParent(t *testing.T) {
	gs := newGraphServer(t)
	client, _ := newTestClient(t, gs, delegatedRecord())

	_, err := client.CreateFolder(context.Background(), "SM", "Projects", "parent-1")
	require.NoError(t, err)

	reqs := gs.captured()
	assert.Equal(t, "/me/mailFolders/parent-1/childFolders", reqs[0].Path)
	assert.JSONEq(t, `{"displayName":"Projects"}`, reqs[0].Body)
}
