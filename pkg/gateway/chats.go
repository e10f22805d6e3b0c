package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Chat is a conversation summary.
type Chat struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	IsGroup       bool       `json:"isGroup,omitempty"`
	UnreadCount   int        `json:"unreadCount,omitempty"`
	Archived      bool       `json:"archived,omitempty"`
	Pinned        bool       `json:"pinned,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	Labels        []string   `json:"labels,omitempty"`
}

// Picture is the resolved avatar location for a chat or contact.
type Picture struct {
	URL string `json:"url"`
}

func (c *Client) ListChats(ctx context.Context, sessionID string) ([]Chat, error) {
	var chats []Chat
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChatMessages returns the newest messages of a chat, most recent first.
// limit <= 0 leaves paging to the backend default.
func (c *Client) GetChatMessages(ctx context.Context, sessionID, chatID string, limit int) ([]Message, error) {
	path := "/sessions/" + sessionID + "/chats/" + chatID + "/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var messages []Message
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) DeleteChat(ctx context.Context, sessionID, chatID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+sessionID+"/chats/"+chatID, nil, nil)
}

func (c *Client) ArchiveChat(ctx context.Context, sessionID, chatID string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/chats/"+chatID+"/archive", nil, nil)
}

func (c *Client) UnarchiveChat(ctx context.Context, sessionID, chatID string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/chats/"+chatID+"/unarchive", nil, nil)
}

// GetChatPicture resolves a chat avatar. Some gateway builds lack the chat
// endpoint for direct conversations, so any backend failure falls through to
// the contact profile-picture lookup.
func (c *Client) GetChatPicture(ctx context.Context, sessionID, chatID string) (string, error) {
	var picture Picture
	err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/chats/"+chatID+"/picture", nil, &picture)
	if err == nil {
		return picture.URL, nil
	}
	if !isAPIError(err) {
		return "", err
	}
	return c.GetContactPicture(ctx, sessionID, chatID)
}

// SetChatLabels replaces the labels assigned to a chat.
func (c *Client) SetChatLabels(ctx context.Context, sessionID, chatID string, labelIDs []string) error {
	body := map[string][]string{"labelIds": labelIDs}
	return c.do(ctx, http.MethodPut, "/sessions/"+sessionID+"/chats/"+chatID+"/labels", body, nil)
}
