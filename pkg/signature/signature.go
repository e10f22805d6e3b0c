package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Prefix is the hub-style signature prefix some gateway versions prepend.
const Prefix = "sha256="

// Sign computes the HMAC-SHA256 hex digest of payload keyed by secret.
// This is the value the gateway sends in X-Webhook-Signature.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a received signature against the payload in constant time.
// Both the bare hex form and the "sha256="-prefixed hub form are accepted.
func Verify(payload []byte, secret string, received string) bool {
	received = strings.TrimPrefix(strings.TrimSpace(received), Prefix)
	if received == "" {
		return false
	}
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(received))
}
