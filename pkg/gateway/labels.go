package gateway

import (
	"context"
	"net/http"
	"strings"
)

// Label is a WhatsApp Business chat label.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color int    `json:"color,omitempty"`
}

type LabelRequest struct {
	Name  string `json:"name"`
	Color int    `json:"color,omitempty"`
}

func (c *Client) ListLabels(ctx context.Context, sessionID string) ([]Label, error) {
	var labels []Label
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/labels", nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

func (c *Client) CreateLabel(ctx context.Context, sessionID string, req LabelRequest) (*Label, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "label name cannot be empty"}
	}
	var label Label
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/labels", req, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

func (c *Client) UpdateLabel(ctx context.Context, sessionID, labelID string, req LabelRequest) (*Label, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "label name cannot be empty"}
	}
	var label Label
	if err := c.do(ctx, http.MethodPut, "/sessions/"+sessionID+"/labels/"+labelID, req, &label); err != nil {
		return nil, err
	}
	return &label, nil
}

func (c *Client) DeleteLabel(ctx context.Context, sessionID, labelID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+sessionID+"/labels/"+labelID, nil, nil)
}

// GetLabelChats lists the chats currently tagged with a label.
func (c *Client) GetLabelChats(ctx context.Context, sessionID, labelID string) ([]Chat, error) {
	var chats []Chat
	path := "/sessions/" + sessionID + "/labels/" + labelID + "/chats"
	if err := c.do(ctx, http.MethodGet, path, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}
