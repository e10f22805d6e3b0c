package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zapkit/zapctl/pkg/log"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10

	redialBackoffBase = time.Second
	redialBackoffMax  = 30 * time.Second
	redialJitterMax   = 500 * time.Millisecond
)

// Options tunes a subscription. The zero value works against an open
// gateway.
type Options struct {
	// APIKey authenticates the socket; sent as X-API-Key on the handshake.
	APIKey string
	// Buffer sizes the event channel. Default 32.
	Buffer int
}

// Subscriber maintains one socket subscription for one session id, redialing
// with capped exponential backoff when the connection drops. Events are
// delivered in arrival order on Events(); the channel closes when the
// context is canceled or Close is called.
type Subscriber struct {
	wsURL     string
	sessionID string
	header    http.Header

	events chan Event
	cancel context.CancelFunc

	mu      sync.Mutex
	lastErr error
}

// SocketURL derives the websocket endpoint from the gateway base URL.
func SocketURL(baseURL, sessionID string) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return "", fmt.Errorf("parse gateway url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported gateway scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/api/ws"

	query := parsed.Query()
	query.Set("sessionId", sessionID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// Subscribe dials the realtime channel for one session. The first dial is
// synchronous so misconfiguration fails fast; afterwards the subscriber owns
// reconnection until ctx is canceled.
func Subscribe(ctx context.Context, baseURL, sessionID string, opts Options) (*Subscriber, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	wsURL, err := SocketURL(baseURL, sessionID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if opts.APIKey != "" {
		header.Set("X-API-Key", opts.APIKey)
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 32
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscriber{
		wsURL:     wsURL,
		sessionID: sessionID,
		header:    header,
		events:    make(chan Event, buffer),
		cancel:    cancel,
	}

	conn, err := s.dial(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	go s.run(ctx, conn)
	return s, nil
}

// Events yields pushes in arrival order. The channel closes on shutdown.
func (s *Subscriber) Events() <-chan Event { return s.events }

// Close tears the subscription down. Safe to call more than once.
func (s *Subscriber) Close() { s.cancel() }

// Err reports the last transport error observed before shutdown, nil on a
// clean close.
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Subscriber) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, s.wsURL, s.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime dial %s: %w (status %d)", s.wsURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("realtime dial %s: %w", s.wsURL, err)
	}
	return conn, nil
}

func (s *Subscriber) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.events)

	attempt := 0
	for {
		if conn != nil {
			err := s.readLoop(ctx, conn)
			_ = conn.Close()
			conn = nil
			if ctx.Err() != nil {
				return
			}
			s.setErr(err)
			log.Session("realtime", s.sessionID).Warn("socket dropped: " + err.Error())
		}

		// Capped exponential backoff with jitter before redialing. Dial
		// failures climb the same ladder.
		attempt++
		shift := attempt - 1
		if shift > 4 {
			shift = 4
		}
		backoff := redialBackoffBase * time.Duration(1<<shift)
		if backoff > redialBackoffMax {
			backoff = redialBackoffMax
		}
		jitter := time.Duration(mathrand.Int64N(int64(redialJitterMax) + 1))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff + jitter):
		}

		next, dialErr := s.dial(ctx)
		if dialErr != nil {
			if ctx.Err() != nil {
				return
			}
			s.setErr(dialErr)
			continue
		}
		conn = next
		attempt = 0
		s.setErr(nil)
		log.Session("realtime", s.sessionID).Info("socket reconnected")
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	pingStop := make(chan struct{})
	defer close(pingStop)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-pingStop:
				return
			case <-ctx.Done():
				// Unblock the pending ReadMessage so shutdown is prompt.
				_ = conn.Close()
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Session("realtime", s.sessionID).Warn("dropping malformed frame: " + err.Error())
			continue
		}
		if f.Event == "" {
			continue
		}

		var p probe
		_ = json.Unmarshal(f.Data, &p)

		ev := Event{
			Name:       f.Event,
			SessionID:  p.SessionID,
			Seq:        p.Seq,
			ReceivedAt: time.Now(),
			Data:       f.Data,
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.events <- ev:
		}
	}
}
