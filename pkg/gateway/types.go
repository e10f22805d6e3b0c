package gateway

import "time"

// Session is one logical WhatsApp device link managed by the gateway. All
// fields are backend-authoritative; the client never computes transitions
// locally.
type Session struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      Status         `json:"status"`
	PhoneNumber string         `json:"phoneNumber,omitempty"`
	PushName    string         `json:"pushName,omitempty"`
	ConnectedAt *time.Time     `json:"connectedAt,omitempty"`
	QRCode      *string        `json:"qrCode,omitempty"`
	Config      *SessionConfig `json:"config,omitempty"`
	Counts      *SessionCounts `json:"counts,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type SessionCounts struct {
	Webhooks int `json:"webhooks"`
	Messages int `json:"messages"`
	Chats    int `json:"chats"`
}

// SessionConfig is the nested session configuration. Keys are present only
// when non-default; SessionForm.Build prunes untouched sections before
// submission.
type SessionConfig struct {
	Proxy    *ProxyConfig           `json:"proxy,omitempty"`
	Client   *ClientConfig          `json:"client,omitempty"`
	Ignore   *IgnoreConfig          `json:"ignore,omitempty"`
	Noweb    *NowebConfig           `json:"noweb,omitempty"`
	Debug    bool                   `json:"debug,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Webhooks []WebhookConfig        `json:"webhooks,omitempty"`
}

// IsEmpty reports whether every section is at its default.
func (c *SessionConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Proxy == nil && c.Client == nil && c.Ignore == nil && c.Noweb == nil &&
		!c.Debug && len(c.Metadata) == 0 && len(c.Webhooks) == 0
}

type ProxyConfig struct {
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type ClientConfig struct {
	DeviceName  string `json:"deviceName,omitempty"`
	BrowserName string `json:"browserName,omitempty"`
}

type IgnoreConfig struct {
	Status    bool `json:"status,omitempty"`
	Groups    bool `json:"groups,omitempty"`
	Channels  bool `json:"channels,omitempty"`
	Broadcast bool `json:"broadcast,omitempty"`
}

type NowebConfig struct {
	Store      *NowebStoreConfig `json:"store,omitempty"`
	MarkOnline bool              `json:"markOnline,omitempty"`
}

type NowebStoreConfig struct {
	Enabled  bool `json:"enabled"`
	FullSync bool `json:"fullSync,omitempty"`
}

// WebhookConfig is the inline webhook shape embedded in a session config.
// Standalone webhook entities (with ids, logs, activation state) live behind
// the sessions/{id}/webhooks endpoints; see Webhook.
type WebhookConfig struct {
	URL           string          `json:"url"`
	Events        []string        `json:"events"`
	Secret        string          `json:"secret,omitempty"`
	Retries       *WebhookRetries `json:"retries,omitempty"`
	CustomHeaders []WebhookHeader `json:"customHeaders,omitempty"`
}

// QRCode is the scannable login payload for a session. The value is either a
// raw pairing string (renderable locally) or an already-encoded PNG data URL,
// depending on the gateway version.
type QRCode struct {
	QR        string     `json:"qr"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Account describes the WhatsApp account behind a connected session.
type Account struct {
	PhoneNumber string `json:"phoneNumber"`
	PushName    string `json:"pushName,omitempty"`
	Platform    string `json:"platform,omitempty"`
}
