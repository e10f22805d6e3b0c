package gateway

import (
	"context"
	"net/http"
	"strings"
)

// TextStatus publishes a text story to the session's status feed.
type TextStatus struct {
	Text            string `json:"text"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Font            int    `json:"font,omitempty"`
}

type ImageStatus struct {
	Caption string           `json:"caption,omitempty"`
	File    *MediaAttachment `json:"file,omitempty"`
	URL     string           `json:"url,omitempty"`
}

type VideoStatus struct {
	Caption string           `json:"caption,omitempty"`
	File    *MediaAttachment `json:"file,omitempty"`
	URL     string           `json:"url,omitempty"`
}

func (c *Client) SendTextStatus(ctx context.Context, sessionID string, status TextStatus) (*Message, error) {
	if strings.TrimSpace(status.Text) == "" {
		return nil, &ValidationError{Field: "text", Message: "status text cannot be empty"}
	}
	var message Message
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/status/text", status, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// SendImageStatus runs the same image preprocessing as SendImage before
// publishing.
func (c *Client) SendImageStatus(ctx context.Context, sessionID string, status ImageStatus) (*Message, error) {
	if status.File == nil && status.URL == "" {
		return nil, &ValidationError{Field: "file", Message: "either file content or a url is required"}
	}
	if status.File != nil {
		data, mimetype, _, err := PrepareImage(status.File.Data, status.File.Mimetype, c.media)
		if err != nil {
			return nil, err
		}
		status.File.Data = data
		status.File.Mimetype = mimetype
	}
	var message Message
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/status/image", status, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *Client) SendVideoStatus(ctx context.Context, sessionID string, status VideoStatus) (*Message, error) {
	if status.File == nil && status.URL == "" {
		return nil, &ValidationError{Field: "file", Message: "either file content or a url is required"}
	}
	var message Message
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/status/video", status, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// DeleteStatus removes a previously published story.
func (c *Client) DeleteStatus(ctx context.Context, sessionID, statusID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+sessionID+"/status/"+statusID, nil, nil)
}
