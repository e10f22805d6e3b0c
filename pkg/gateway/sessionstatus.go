package gateway

// Status is the backend-owned session lifecycle state. Happy path:
// STOPPED → STARTING → QR_READY → AUTHENTICATING → AUTHENTICATED → CONNECTED.
// Terminal branches: DISCONNECTED, LOGGED_OUT, FAILED, QR_TIMEOUT.
type Status string

const (
	StatusStopped        Status = "STOPPED"
	StatusStarting       Status = "STARTING"
	StatusQRReady        Status = "QR_READY"
	StatusAuthenticating Status = "AUTHENTICATING"
	StatusAuthenticated  Status = "AUTHENTICATED"
	StatusConnected      Status = "CONNECTED"
	StatusDisconnected   Status = "DISCONNECTED"
	StatusLoggedOut      Status = "LOGGED_OUT"
	StatusFailed         Status = "FAILED"
	StatusQRTimeout      Status = "QR_TIMEOUT"
)

// NormalizeStatus folds the aliases older gateway builds emit into the
// canonical set: SCAN_QR_CODE is QR_READY, INITIALIZING is STARTING.
func NormalizeStatus(s Status) Status {
	switch s {
	case "SCAN_QR_CODE":
		return StatusQRReady
	case "INITIALIZING":
		return StatusStarting
	default:
		return s
	}
}

// IsTerminalFailure reports whether the status is one of the error branches
// in which a stale QR code must never be shown.
func (s Status) IsTerminalFailure() bool {
	switch NormalizeStatus(s) {
	case StatusDisconnected, StatusLoggedOut, StatusFailed, StatusQRTimeout:
		return true
	default:
		return false
	}
}

// IsConnected reports whether the session is linked and usable.
func (s Status) IsConnected() bool {
	switch NormalizeStatus(s) {
	case StatusAuthenticated, StatusConnected:
		return true
	default:
		return false
	}
}

// WaitingForQR reports whether the session is in a phase where a login code
// is expected to appear.
func (s Status) WaitingForQR() bool {
	switch NormalizeStatus(s) {
	case StatusStarting, StatusQRReady:
		return true
	default:
		return false
	}
}
