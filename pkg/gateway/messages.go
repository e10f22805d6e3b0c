package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zapkit/zapctl/pkg/validation"
)

// Message is a sent or received message record as the gateway reports it.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	FromMe    bool      `json:"fromMe,omitempty"`
	Type      string    `json:"type,omitempty"`
	Body      string    `json:"body,omitempty"`
	Ack       int       `json:"ack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MediaAttachment carries inline file content; Data rides base64-encoded in
// the JSON body.
type MediaAttachment struct {
	Mimetype string `json:"mimetype"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data"`
}

type TextMessage struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	ReplyTo string `json:"replyTo,omitempty"`
}

type ImageMessage struct {
	ChatID        string           `json:"chatId"`
	Caption       string           `json:"caption,omitempty"`
	File          *MediaAttachment `json:"file,omitempty"`
	URL           string           `json:"url,omitempty"`
	JPEGThumbnail []byte           `json:"jpegThumbnail,omitempty"`
}

type VideoMessage struct {
	ChatID  string           `json:"chatId"`
	Caption string           `json:"caption,omitempty"`
	File    *MediaAttachment `json:"file,omitempty"`
	URL     string           `json:"url,omitempty"`
}

type AudioMessage struct {
	ChatID string           `json:"chatId"`
	File   *MediaAttachment `json:"file,omitempty"`
	URL    string           `json:"url,omitempty"`
}

type DocumentMessage struct {
	ChatID  string           `json:"chatId"`
	Caption string           `json:"caption,omitempty"`
	File    *MediaAttachment `json:"file,omitempty"`
	URL     string           `json:"url,omitempty"`
}

type LocationMessage struct {
	ChatID    string  `json:"chatId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Title     string  `json:"title,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type ContactCard struct {
	FullName     string `json:"fullName"`
	PhoneNumber  string `json:"phoneNumber"`
	Organization string `json:"organization,omitempty"`
	Vcard        string `json:"vcard,omitempty"`
}

type ContactMessage struct {
	ChatID   string        `json:"chatId"`
	Contacts []ContactCard `json:"contacts"`
}

type PollMessage struct {
	ChatID          string   `json:"chatId"`
	Name            string   `json:"name"`
	Options         []string `json:"options"`
	MultipleAnswers bool     `json:"multipleAnswers,omitempty"`
}

type ReactionMessage struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
}

type SeenRequest struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId,omitempty"`
}

const pollMaxOptions = 12

func (c *Client) SendText(ctx context.Context, sessionID string, msg TextMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, &ValidationError{Field: "text", Message: "message text cannot be empty"}
	}
	return c.sendMessage(ctx, sessionID, "text", msg)
}

// SendImage preprocesses inline file content (webp conversion, resize,
// thumbnail) before upload; URL-referenced media is passed through untouched
// for the gateway to fetch.
func (c *Client) SendImage(ctx context.Context, sessionID string, msg ImageMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if msg.File == nil && msg.URL == "" {
		return nil, &ValidationError{Field: "file", Message: "either file content or a url is required"}
	}
	if msg.File != nil {
		data, mimetype, thumb, err := PrepareImage(msg.File.Data, msg.File.Mimetype, c.media)
		if err != nil {
			return nil, err
		}
		msg.File.Data = data
		msg.File.Mimetype = mimetype
		msg.JPEGThumbnail = thumb
	}
	return c.sendMessage(ctx, sessionID, "image", msg)
}

func (c *Client) SendVideo(ctx context.Context, sessionID string, msg VideoMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if msg.File == nil && msg.URL == "" {
		return nil, &ValidationError{Field: "file", Message: "either file content or a url is required"}
	}
	return c.sendMessage(ctx, sessionID, "video", msg)
}

func (c *Client) SendAudio(ctx context.Context, sessionID string, msg AudioMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if msg.File == nil && msg.URL == "" {
		return nil, &ValidationError{Field: "file", Message: "either file content or a url is required"}
	}
	return c.sendMessage(ctx, sessionID, "audio", msg)
}

func (c *Client) SendDocument(ctx context.Context, sessionID string, msg DocumentMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if msg.File == nil && msg.URL == "" {
		return nil, &ValidationError{Field: "file", Message: "either file content or a url is required"}
	}
	return c.sendMessage(ctx, sessionID, "document", msg)
}

func (c *Client) SendLocation(ctx context.Context, sessionID string, msg LocationMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return nil, &ValidationError{Field: "latitude", Message: "latitude must be between -90 and 90"}
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return nil, &ValidationError{Field: "longitude", Message: "longitude must be between -180 and 180"}
	}
	return c.sendMessage(ctx, sessionID, "location", msg)
}

func (c *Client) SendContact(ctx context.Context, sessionID string, msg ContactMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if len(msg.Contacts) == 0 {
		return nil, &ValidationError{Field: "contacts", Message: "at least one contact is required"}
	}
	for i, card := range msg.Contacts {
		if strings.TrimSpace(card.FullName) == "" {
			return nil, &ValidationError{
				Field:   "contacts[" + strconv.Itoa(i) + "].fullName",
				Message: "full name is required",
			}
		}
		if err := validation.ValidatePhone(card.PhoneNumber); err != nil {
			return nil, &ValidationError{
				Field:   "contacts[" + strconv.Itoa(i) + "].phoneNumber",
				Message: err.Error(),
			}
		}
	}
	return c.sendMessage(ctx, sessionID, "contact", msg)
}

func (c *Client) SendPoll(ctx context.Context, sessionID string, msg PollMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if strings.TrimSpace(msg.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "poll question cannot be empty"}
	}
	options := compactStrings(msg.Options)
	if len(options) < 2 {
		return nil, &ValidationError{Field: "options", Message: "a poll needs at least two options"}
	}
	if len(options) > pollMaxOptions {
		return nil, &ValidationError{Field: "options", Message: "a poll allows at most twelve options"}
	}
	msg.Options = options
	return c.sendMessage(ctx, sessionID, "poll", msg)
}

// SendReaction reacts to a message. Empty reaction removes a previous one;
// anything else must be a single emoji.
func (c *Client) SendReaction(ctx context.Context, sessionID string, msg ReactionMessage) (*Message, error) {
	if err := validation.ValidateChatID(msg.ChatID); err != nil {
		return nil, &ValidationError{Field: "chatId", Message: err.Error()}
	}
	if strings.TrimSpace(msg.MessageID) == "" {
		return nil, &ValidationError{Field: "messageId", Message: "message id is required"}
	}
	if err := validation.ValidateReactionEmoji(msg.Reaction); err != nil {
		return nil, &ValidationError{Field: "reaction", Message: err.Error()}
	}
	return c.sendMessage(ctx, sessionID, "reaction", msg)
}

// MarkSeen marks a chat (or one message in it) as read.
func (c *Client) MarkSeen(ctx context.Context, sessionID string, req SeenRequest) error {
	if err := validation.ValidateChatID(req.ChatID); err != nil {
		return &ValidationError{Field: "chatId", Message: err.Error()}
	}
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/messages/seen", req, nil)
}

// EditMessage replaces the text of a previously sent message.
func (c *Client) EditMessage(ctx context.Context, sessionID, chatID, messageID, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Message: "message text cannot be empty"}
	}
	var message Message
	path := "/sessions/" + sessionID + "/chats/" + chatID + "/messages/" + messageID
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"text": text}, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// DeleteMessage revokes a previously sent message for everyone.
func (c *Client) DeleteMessage(ctx context.Context, sessionID, chatID, messageID string) error {
	path := "/sessions/" + sessionID + "/chats/" + chatID + "/messages/" + messageID
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) sendMessage(ctx context.Context, sessionID, kind string, body interface{}) (*Message, error) {
	var message Message
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/messages/"+kind, body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}
