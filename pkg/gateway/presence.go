package gateway

import (
	"context"
	"net/http"
	"time"
)

// Presence is the account-level availability state.
type Presence string

const (
	PresenceAvailable   Presence = "available"
	PresenceUnavailable Presence = "unavailable"
)

// ChatPresence is the per-conversation activity indicator.
type ChatPresence string

const (
	ChatPresenceTyping    ChatPresence = "typing"
	ChatPresenceRecording ChatPresence = "recording"
	ChatPresencePaused    ChatPresence = "paused"
)

// PresenceInfo is the last observed presence of a chat peer.
type PresenceInfo struct {
	ChatID   string     `json:"chatId"`
	Presence string     `json:"presence"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// SetPresence switches the session between available and unavailable.
func (c *Client) SetPresence(ctx context.Context, sessionID string, presence Presence) error {
	switch presence {
	case PresenceAvailable, PresenceUnavailable:
	default:
		return &ValidationError{Field: "presence", Message: "presence must be available or unavailable"}
	}
	body := map[string]string{"presence": string(presence)}
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/presence", body, nil)
}

// SetChatPresence shows a typing/recording indicator in one chat.
func (c *Client) SetChatPresence(ctx context.Context, sessionID, chatID string, presence ChatPresence) error {
	switch presence {
	case ChatPresenceTyping, ChatPresenceRecording, ChatPresencePaused:
	default:
		return &ValidationError{Field: "presence", Message: "presence must be typing, recording or paused"}
	}
	body := map[string]string{"presence": string(presence)}
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/chats/"+chatID+"/presence", body, nil)
}

// GetChatPresence returns the last observed presence of a chat peer; the
// gateway starts tracking on first request.
func (c *Client) GetChatPresence(ctx context.Context, sessionID, chatID string) (*PresenceInfo, error) {
	var info PresenceInfo
	path := "/sessions/" + sessionID + "/chats/" + chatID + "/presence"
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
