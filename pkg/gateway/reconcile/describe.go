package reconcile

import "github.com/zapkit/zapctl/pkg/gateway"

// Descriptor is the presentation mapping for one session status: an icon
// glyph, a short title, what is going on and what the operator should do.
type Descriptor struct {
	Icon        string
	Title       string
	Description string
	Action      string
}

// Describe maps a session status to its presentation descriptor. Aliases are
// normalized first; unknown statuses fall back to a neutral descriptor that
// carries the raw value.
func Describe(status gateway.Status) Descriptor {
	switch gateway.NormalizeStatus(status) {
	case gateway.StatusStopped:
		return Descriptor{
			Icon:        "○",
			Title:       "Stopped",
			Description: "The session is not running.",
			Action:      "Start the session to begin pairing.",
		}
	case gateway.StatusStarting:
		return Descriptor{
			Icon:        "◌",
			Title:       "Starting",
			Description: "The session is booting up.",
			Action:      "Hold on while a QR code is prepared.",
		}
	case gateway.StatusQRReady:
		return Descriptor{
			Icon:        "▣",
			Title:       "Scan the QR code",
			Description: "A login QR code is ready.",
			Action:      "Open WhatsApp on your phone and scan it.",
		}
	case gateway.StatusAuthenticating:
		return Descriptor{
			Icon:        "◍",
			Title:       "Authenticating",
			Description: "The code was scanned, the device link is being established.",
			Action:      "Keep your phone online.",
		}
	case gateway.StatusAuthenticated:
		return Descriptor{
			Icon:        "●",
			Title:       "Authenticated",
			Description: "The device link is established, finishing up.",
		}
	case gateway.StatusConnected:
		return Descriptor{
			Icon:        "●",
			Title:       "Connected",
			Description: "The session is linked and ready to send.",
		}
	case gateway.StatusDisconnected:
		return Descriptor{
			Icon:        "✗",
			Title:       "Disconnected",
			Description: "The session lost its connection to WhatsApp.",
			Action:      "Restart the session to reconnect.",
		}
	case gateway.StatusLoggedOut:
		return Descriptor{
			Icon:        "✗",
			Title:       "Logged out",
			Description: "The device link was removed from the phone.",
			Action:      "Start the session and pair again.",
		}
	case gateway.StatusFailed:
		return Descriptor{
			Icon:        "✗",
			Title:       "Failed",
			Description: "The session hit an unrecoverable error.",
			Action:      "Check the gateway logs, then restart the session.",
		}
	case gateway.StatusQRTimeout:
		return Descriptor{
			Icon:        "⌛",
			Title:       "QR code expired",
			Description: "The login code was not scanned in time.",
			Action:      "Restart the session to get a fresh code.",
		}
	default:
		title := string(status)
		if title == "" {
			title = "Unknown"
		}
		return Descriptor{
			Icon:        "?",
			Title:       title,
			Description: "The gateway reported an unrecognized session status.",
			Action:      "Refresh to fetch the latest state.",
		}
	}
}
