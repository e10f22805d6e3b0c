package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/zapkit/zapctl/pkg/validation"
)

// Contact is an address-book entry as the gateway reports it.
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	PushName    string `json:"pushName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	IsBusiness  bool   `json:"isBusiness,omitempty"`
	IsBlocked   bool   `json:"isBlocked,omitempty"`
}

// ContactCheck is the result of asking whether a phone number is on WhatsApp.
type ContactCheck struct {
	Exists bool   `json:"exists"`
	ID     string `json:"id,omitempty"`
}

func (c *Client) ListContacts(ctx context.Context, sessionID string) ([]Contact, error) {
	var contacts []Contact
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/contacts", nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (c *Client) GetContact(ctx context.Context, sessionID, contactID string) (*Contact, error) {
	var contact Contact
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/contacts/"+contactID, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// CheckContact asks the gateway whether a phone number is registered.
func (c *Client) CheckContact(ctx context.Context, sessionID, phone string) (*ContactCheck, error) {
	if err := validation.ValidatePhone(phone); err != nil {
		return nil, &ValidationError{Field: "phone", Message: err.Error()}
	}
	path := "/sessions/" + sessionID + "/contacts/check?phone=" + url.QueryEscape(strings.TrimSpace(phone))
	var check ContactCheck
	if err := c.do(ctx, http.MethodGet, path, nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

func (c *Client) GetContactPicture(ctx context.Context, sessionID, contactID string) (string, error) {
	var picture Picture
	path := "/sessions/" + sessionID + "/contacts/" + contactID + "/profile-picture"
	if err := c.do(ctx, http.MethodGet, path, nil, &picture); err != nil {
		return "", err
	}
	return picture.URL, nil
}

func (c *Client) BlockContact(ctx context.Context, sessionID, contactID string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/contacts/"+contactID+"/block", nil, nil)
}

func (c *Client) UnblockContact(ctx context.Context, sessionID, contactID string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/contacts/"+contactID+"/unblock", nil, nil)
}
