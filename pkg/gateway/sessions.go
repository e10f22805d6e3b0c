package gateway

import (
	"context"
	mathrand "math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapkit/zapctl/pkg/log"
	"github.com/zapkit/zapctl/pkg/validation"
)

// CreateSessionRequest is the POST /sessions body. Config is omitted entirely
// for an all-default session.
type CreateSessionRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Config      *SessionConfig `json:"config,omitempty"`
}

// UpdateSessionRequest is the PATCH /sessions/{id} body.
type UpdateSessionRequest struct {
	Name        string         `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Config      *SessionConfig `json:"config,omitempty"`
}

// ListSessions returns every session visible to the caller's key.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession registers a new session. Callers normally assemble req via
// SessionForm.Build so pruning and validation have already happened.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, &session); err != nil {
		return nil, err
	}
	session.Status = NormalizeStatus(session.Status)
	return &session, nil
}

func (c *Client) UpdateSession(ctx context.Context, id string, req UpdateSessionRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPatch, "/sessions/"+id, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil)
}

// Lifecycle verbs return no body; fresh state arrives over the realtime
// channel or the next refetch.

func (c *Client) StartSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+id+"/start", nil, nil)
}

func (c *Client) StopSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+id+"/stop", nil, nil)
}

func (c *Client) RestartSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+id+"/restart", nil, nil)
}

func (c *Client) LogoutSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+id+"/logout", nil, nil)
}

// SessionQR fetches the current login code for a session, if one is pending.
func (c *Client) SessionQR(ctx context.Context, id string) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/qr", nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// RequestPairingCode asks the gateway for a phone-number pairing code, the
// QR-free login path.
func (c *Client) RequestPairingCode(ctx context.Context, id string, phone string) (string, error) {
	if err := validation.ValidatePhone(phone); err != nil {
		return "", &ValidationError{Field: "phoneNumber", Message: err.Error()}
	}
	body := map[string]string{"phoneNumber": strings.TrimSpace(phone)}
	var data struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/pairing-code", body, &data); err != nil {
		return "", err
	}
	return data.Code, nil
}

// SessionAccount returns the WhatsApp account behind a connected session.
func (c *Client) SessionAccount(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/me", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

const (
	startAllRetries     = 3
	startAllBackoffBase = 2 * time.Second
	startAllBackoffMax  = 30 * time.Second
	startAllJitterMax   = 500 * time.Millisecond
)

// StartReport summarizes a bulk start pass.
type StartReport struct {
	Started int64 `json:"started"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// StartAllSessions starts every session that is not already linked, at most
// concurrency at a time, retrying each with exponential backoff and a little
// jitter so a rebooted fleet does not stampede the gateway.
func (c *Client) StartAllSessions(ctx context.Context, concurrency int) (StartReport, error) {
	var report StartReport

	sessions, err := c.ListSessions(ctx)
	if err != nil {
		return report, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, session := range sessions {
		if session.Status.IsConnected() {
			atomic.AddInt64(&report.Skipped, 1)
			continue
		}
		id := session.ID
		g.Go(func() error {
			if err := c.startWithRetry(ctx, id, startAllRetries); err != nil {
				atomic.AddInt64(&report.Failed, 1)
				log.Session("session", id).Warn("start failed: " + err.Error())
				return nil
			}
			atomic.AddInt64(&report.Started, 1)
			return nil
		})
	}

	_ = g.Wait()
	return report, nil
}

func (c *Client) startWithRetry(ctx context.Context, id string, retries int) error {
	if retries <= 1 {
		return c.StartSession(ctx, id)
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = c.StartSession(ctx, id)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		// Exponential backoff with small jitter.
		backoff := startAllBackoffBase * time.Duration(1<<(attempt-1))
		if backoff > startAllBackoffMax {
			backoff = startAllBackoffMax
		}
		jitter := time.Duration(mathrand.Int64N(int64(startAllJitterMax) + 1))
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(backoff + jitter):
		}
	}
	return lastErr
}
