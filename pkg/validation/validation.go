package validation

import (
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
)

var (
	phonePattern       = regexp.MustCompile(`^[1-9][0-9]{5,15}$`)
	sessionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidatePhone ensures international format (no leading 0, digits only, length 6-16).
func ValidatePhone(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return errors.New("phone number cannot be empty")
	}
	if strings.HasPrefix(trimmed, "+") {
		trimmed = trimmed[1:]
	}
	if strings.HasPrefix(trimmed, "0") {
		return errors.New("phone number must be in international format without leading 0")
	}
	if !phonePattern.MatchString(trimmed) {
		return errors.New("phone number must be digits only and at least 6 characters")
	}
	return nil
}

// ValidateSessionName enforces the gateway's session naming rule.
func ValidateSessionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("session name cannot be empty")
	}
	if !sessionNamePattern.MatchString(name) {
		return errors.New("session name may only contain letters, digits, underscores and hyphens")
	}
	return nil
}

// ValidateChatID ensures a chat identifier is provided.
func ValidateChatID(chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return errors.New("chat id is required")
	}
	return nil
}

// ValidateURL ensures a non-empty valid URL when provided.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("url cannot be empty")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return errors.New("url must be valid")
	}
	return nil
}

// ValidateWebhookURL requires an absolute http or https URL with a host part.
func ValidateWebhookURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("webhook url cannot be empty")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return errors.New("webhook url must be a valid url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("webhook url must use http or https")
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include a host")
	}
	return nil
}

// ValidateMetadataJSON requires the metadata text to parse as a JSON object.
func ValidateMetadataJSON(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("metadata cannot be empty")
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return errors.New("metadata must be a valid JSON object")
	}
	return nil
}

// ValidateReactionEmoji accepts an empty string (reaction removal), a known emoji,
// or any single grapheme cluster.
func ValidateReactionEmoji(emoji string) error {
	if emoji == "" {
		return nil
	}
	if !gomoji.ContainsEmoji(emoji) && uniseg.GraphemeClusterCount(emoji) != 1 {
		return errors.New("reaction must be a single emoji")
	}
	return nil
}
