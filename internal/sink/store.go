package sink

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Delivery is one captured webhook POST. Body keeps the raw payload so
// operators can diff exactly what the gateway sent; Event/SessionID are
// lifted out of it for filtering.
type Delivery struct {
	ID         string            `json:"id"`
	ReceivedAt time.Time         `json:"receivedAt"`
	RemoteIP   string            `json:"remoteIp,omitempty"`
	Path       string            `json:"path"`
	Event      string            `json:"event,omitempty"`
	SessionID  string            `json:"sessionId,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`

	// Signature state: nil means no secret was configured so the signature
	// went unchecked.
	SignatureValid *bool `json:"signatureValid,omitempty"`
}

// deliveryEnvelope is the gateway's webhook POST body shape.
type deliveryEnvelope struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
}

// NewDelivery stamps an id and receive time and lifts the event fields out
// of the body. Malformed bodies are kept verbatim with the fields empty.
func NewDelivery(path, remoteIP string, headers map[string]string, body []byte) Delivery {
	d := Delivery{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		RemoteIP:   remoteIP,
		Path:       path,
		Headers:    headers,
		Body:       append([]byte(nil), body...),
	}
	var env deliveryEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		d.Event = env.Event
		d.SessionID = env.SessionID
	}
	return d
}

// Store keeps the most recent deliveries in memory, newest last. Once the
// cap is reached the oldest entry is dropped per insert.
type Store struct {
	mu    sync.RWMutex
	keep  int
	total uint64
	items []Delivery
}

const defaultKeep = 200

func NewStore(keep int) *Store {
	if keep <= 0 {
		keep = defaultKeep
	}
	return &Store{keep: keep, items: make([]Delivery, 0, keep)}
}

func (s *Store) Add(d Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if len(s.items) == s.keep {
		copy(s.items, s.items[1:])
		s.items = s.items[:s.keep-1]
	}
	s.items = append(s.items, d)
}

// List returns up to limit deliveries, newest first, optionally filtered by
// event name. limit <= 0 means all retained entries.
func (s *Store) List(limit int, event string) []Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Delivery, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		if event != "" && s.items[i].Event != event {
			continue
		}
		out = append(out, s.items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) Get(id string) (Delivery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		if s.items[i].ID == id {
			return s.items[i], true
		}
	}
	return Delivery{}, false
}

// PruneOlderThan drops retained deliveries received before cutoff and
// reports how many went.
func (s *Store) PruneOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := 0
	for idx < len(s.items) && s.items[idx].ReceivedAt.Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return 0
	}
	remaining := len(s.items) - idx
	copy(s.items, s.items[idx:])
	s.items = s.items[:remaining]
	return idx
}

// Stats summarizes the store for the /stats endpoint.
type Stats struct {
	TotalReceived uint64     `json:"totalReceived"`
	Retained      int        `json:"retained"`
	OldestAt      *time.Time `json:"oldestAt,omitempty"`
	NewestAt      *time.Time `json:"newestAt,omitempty"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{TotalReceived: s.total, Retained: len(s.items)}
	if len(s.items) > 0 {
		oldest := s.items[0].ReceivedAt
		newest := s.items[len(s.items)-1].ReceivedAt
		st.OldestAt = &oldest
		st.NewestAt = &newest
	}
	return st
}
