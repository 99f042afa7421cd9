package sdk

import (
	"context"
	"fmt"
	"strings"

	"github.com/behavioguard/behavioguard-go/routes"
)

// Conversation is a chat partner summary.
type Conversation struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Message is a direct message rendered relative to the current user: Sender
// is "me" or "them".
type Message struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Sender     string `json:"sender"`
	SenderName string `json:"sender_name"`
	Time       string `json:"time"`
	IsRead     bool   `json:"is_read"`
}

// MessagesClient provides direct messaging.
type MessagesClient struct {
	client *Client
}

// Conversations lists users the current user has exchanged messages with.
func (m *MessagesClient) Conversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := m.client.getJSON(ctx, routes.MessagesConversations, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// With returns the message history with one user. Fetching marks their
// messages as read server-side.
func (m *MessagesClient) With(ctx context.Context, userID int64) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	path := fmt.Sprintf(routes.MessagesWith, userID)
	if err := m.client.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Send delivers a direct message and returns the stored copy.
func (m *MessagesClient) Send(ctx context.Context, receiverID int64, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ValidationError{Field: "text", Reason: "must not be blank"}
	}
	payload := struct {
		ReceiverID int64  `json:"receiver_id"`
		Text       string `json:"text"`
	}{ReceiverID: receiverID, Text: text}
	var resp struct {
		Message Message `json:"message"`
	}
	if err := m.client.postJSON(ctx, routes.Messages, payload, &resp); err != nil {
		return Message{}, err
	}
	return resp.Message, nil
}
