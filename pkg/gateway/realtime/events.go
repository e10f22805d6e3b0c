package realtime

import (
	"encoding/json"
	"time"
)

// Event names the gateway pushes for a subscribed session.
const (
	EventQR           = "session:qr"
	EventReady        = "session:ready"
	EventDisconnected = "session:disconnected"
	EventQRTimeout    = "session:qr_timeout"
	EventAuthFailure  = "session:auth_failure"
)

// Event is one push received over the socket. Every payload carries the
// session id; QR frames additionally carry a monotonic seq assigned by the
// backend, which downstream merge logic uses to drop out-of-order frames.
type Event struct {
	Name       string
	SessionID  string
	Seq        int64
	ReceivedAt time.Time
	Data       json.RawMessage
}

// Decode unmarshals the event payload into a typed struct.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

type QRPayload struct {
	SessionID string `json:"sessionId"`
	QR        string `json:"qr"`
	Seq       int64  `json:"seq,omitempty"`
}

type ReadyPayload struct {
	SessionID   string `json:"sessionId"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	PushName    string `json:"pushName,omitempty"`
}

type DisconnectedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason,omitempty"`
}

type QRTimeoutPayload struct {
	SessionID string `json:"sessionId"`
}

type AuthFailurePayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason,omitempty"`
}

// frame is the wire shape of every socket message.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// probe pulls the routing fields out of a payload without knowing its type.
type probe struct {
	SessionID string `json:"sessionId"`
	Seq       int64  `json:"seq"`
}
