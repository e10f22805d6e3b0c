package gateway

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/zapkit/zapctl/pkg/validation"
)

// EventAll subscribes a webhook to every event type. Some gateway builds
// store it as "ALL" instead of "*"; both mean the same thing.
const (
	EventAll       = "*"
	EventAllLegacy = "ALL"
)

// RetryPolicy shapes the delay between delivery attempts.
type RetryPolicy string

const (
	RetryPolicyLinear      RetryPolicy = "linear"
	RetryPolicyExponential RetryPolicy = "exponential"
)

// legacyRetryDelaySeconds is the fixed step the gateway's delivery engine
// uses, so a bare legacy retryCount reads back as that schedule.
const legacyRetryDelaySeconds = 2

// Webhook is a user-configured HTTP callback target. The secret is
// write-only: reads carry a masked preview at most. Older gateway rows echo
// the deprecated retryCount/headers fields; Normalize folds those into the
// new shape so callers only ever look at Retries and CustomHeaders.
type Webhook struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	URL           string          `json:"url"`
	Events        []string        `json:"events"`
	IsActive      bool            `json:"isActive"`
	Secret        string          `json:"secret,omitempty"`
	Retries       *WebhookRetries `json:"retries,omitempty"`
	CustomHeaders []WebhookHeader `json:"customHeaders,omitempty"`
	Timeout       int             `json:"timeout,omitempty"`

	// Deprecated: legacy read-side fields, folded by Normalize.
	RetryCount *int              `json:"retryCount,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WebhookRetries struct {
	Attempts     int         `json:"attempts"`
	DelaySeconds int         `json:"delaySeconds"`
	Policy       RetryPolicy `json:"policy"`
}

type WebhookHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Normalize folds the deprecated fields into the new shape. New fields win
// when both are present; legacy values only fill gaps. The legacy fields are
// cleared afterwards so nothing downstream reads them by accident.
func (w *Webhook) Normalize() {
	if w.Retries == nil && w.RetryCount != nil {
		w.Retries = &WebhookRetries{
			Attempts:     *w.RetryCount,
			DelaySeconds: legacyRetryDelaySeconds,
			Policy:       RetryPolicyLinear,
		}
	}
	if len(w.CustomHeaders) == 0 && len(w.Headers) > 0 {
		names := make([]string, 0, len(w.Headers))
		for name := range w.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			w.CustomHeaders = append(w.CustomHeaders, WebhookHeader{Name: name, Value: w.Headers[name]})
		}
	}
	w.RetryCount = nil
	w.Headers = nil
}

// SubscribesTo reports whether the webhook wants a given event, honoring the
// wildcard in either spelling.
func (w *Webhook) SubscribesTo(event string) bool {
	for _, e := range w.Events {
		if e == event || e == EventAll || e == EventAllLegacy {
			return true
		}
	}
	return false
}

// WebhookRequest is the create/update body. It deliberately has no legacy
// fields: writers always emit the new shape.
type WebhookRequest struct {
	Name          string          `json:"name,omitempty"`
	URL           string          `json:"url"`
	Events        []string        `json:"events"`
	IsActive      *bool           `json:"isActive,omitempty"`
	Secret        string          `json:"secret,omitempty"`
	Retries       *WebhookRetries `json:"retries,omitempty"`
	CustomHeaders []WebhookHeader `json:"customHeaders,omitempty"`
	Timeout       int             `json:"timeout,omitempty"`
}

func (r *WebhookRequest) validate() error {
	if err := validation.ValidateWebhookURL(r.URL); err != nil {
		return &ValidationError{Field: "url", Message: err.Error()}
	}
	if len(compactStrings(r.Events)) == 0 {
		return &ValidationError{Field: "events", Message: "at least one event is required"}
	}
	r.Events = compactStrings(r.Events)
	if r.Retries != nil {
		switch r.Retries.Policy {
		case "", RetryPolicyLinear, RetryPolicyExponential:
		default:
			return &ValidationError{Field: "retries.policy", Message: "policy must be linear or exponential"}
		}
		if r.Retries.Attempts < 0 {
			return &ValidationError{Field: "retries.attempts", Message: "attempts cannot be negative"}
		}
	}
	return nil
}

// WebhookLog is a read-only delivery-audit record.
type WebhookLog struct {
	ID             string    `json:"id"`
	Event          string    `json:"event"`
	StatusCode     int       `json:"statusCode"`
	ResponseTimeMS int       `json:"responseTime"`
	Attempt        int       `json:"attempt"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (c *Client) ListWebhooks(ctx context.Context, sessionID string) ([]Webhook, error) {
	var webhooks []Webhook
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/webhooks", nil, &webhooks); err != nil {
		return nil, err
	}
	for i := range webhooks {
		webhooks[i].Normalize()
	}
	return webhooks, nil
}

func (c *Client) CreateWebhook(ctx context.Context, sessionID string, req WebhookRequest) (*Webhook, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var webhook Webhook
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/webhooks", req, &webhook); err != nil {
		return nil, err
	}
	webhook.Normalize()
	return &webhook, nil
}

func (c *Client) GetWebhook(ctx context.Context, sessionID, webhookID string) (*Webhook, error) {
	var webhook Webhook
	if err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/webhooks/"+webhookID, nil, &webhook); err != nil {
		return nil, err
	}
	webhook.Normalize()
	return &webhook, nil
}

func (c *Client) UpdateWebhook(ctx context.Context, sessionID, webhookID string, req WebhookRequest) (*Webhook, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var webhook Webhook
	if err := c.do(ctx, http.MethodPut, "/sessions/"+sessionID+"/webhooks/"+webhookID, req, &webhook); err != nil {
		return nil, err
	}
	webhook.Normalize()
	return &webhook, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, sessionID, webhookID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+sessionID+"/webhooks/"+webhookID, nil, nil)
}

// GetWebhookLogs returns recent delivery attempts, newest first. limit <= 0
// leaves paging to the backend default.
func (c *Client) GetWebhookLogs(ctx context.Context, sessionID, webhookID string, limit int) ([]WebhookLog, error) {
	path := "/sessions/" + sessionID + "/webhooks/" + webhookID + "/logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var logs []WebhookLog
	if err := c.do(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// TestWebhook asks the gateway to fire a synthetic event at the target and
// reports the delivery outcome.
func (c *Client) TestWebhook(ctx context.Context, sessionID, webhookID string) (*WebhookLog, error) {
	var result WebhookLog
	path := "/sessions/" + sessionID + "/webhooks/" + webhookID + "/test"
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
