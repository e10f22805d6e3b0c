package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zapkit/zapctl/pkg/validation"
)

// SessionForm is a flat bag of independently-set session fields, the way an
// operator fills them in one at a time. Build assembles the nested config,
// emitting each logical section only when at least one of its fields differs
// from the default, so an all-default form produces no config at all.
type SessionForm struct {
	Name        string
	Description string

	ClientDeviceName  string
	ClientBrowserName string

	ProxyEnabled  bool
	ProxyServer   string
	ProxyUsername string
	ProxyPassword string

	IgnoreStatus    bool
	IgnoreGroups    bool
	IgnoreChannels  bool
	IgnoreBroadcast bool

	NowebStoreEnabled bool
	NowebFullSync     bool
	MarkOnline        bool

	Debug bool

	// MetadataJSON is the raw metadata text; it must parse as a JSON object.
	MetadataJSON string

	Webhooks []WebhookForm
}

// WebhookForm is one inline webhook row. A row with every field untouched is
// silently dropped during Build rather than flagged.
type WebhookForm struct {
	URL           string
	Events        []string
	Secret        string
	Retries       *WebhookRetries
	CustomHeaders []WebhookHeader
}

func (w WebhookForm) untouched() bool {
	return strings.TrimSpace(w.URL) == "" &&
		len(compactStrings(w.Events)) == 0 &&
		strings.TrimSpace(w.Secret) == "" &&
		w.Retries == nil &&
		len(w.CustomHeaders) == 0
}

// Build validates the form and assembles a create request. Validation runs
// before assembly; the first offending field aborts the whole submission, so
// no partial config ever goes out.
func (f SessionForm) Build() (CreateSessionRequest, error) {
	var req CreateSessionRequest

	if err := validation.ValidateSessionName(f.Name); err != nil {
		return req, &ValidationError{Field: "name", Message: err.Error()}
	}

	cfg, err := f.buildConfig()
	if err != nil {
		return req, err
	}

	req.Name = f.Name
	req.Description = strings.TrimSpace(f.Description)
	req.Config = cfg
	return req, nil
}

// BuildUpdate assembles a PATCH body from the same form, for editing an
// existing session.
func (f SessionForm) BuildUpdate() (UpdateSessionRequest, error) {
	var req UpdateSessionRequest

	if err := validation.ValidateSessionName(f.Name); err != nil {
		return req, &ValidationError{Field: "name", Message: err.Error()}
	}

	cfg, err := f.buildConfig()
	if err != nil {
		return req, err
	}

	desc := strings.TrimSpace(f.Description)
	req.Name = f.Name
	req.Description = &desc
	req.Config = cfg
	return req, nil
}

func (f SessionForm) buildConfig() (*SessionConfig, error) {
	if f.ProxyEnabled && strings.TrimSpace(f.ProxyServer) == "" {
		return nil, &ValidationError{Field: "proxy.server", Message: "server is required when proxy is enabled"}
	}

	var metadata map[string]interface{}
	if strings.TrimSpace(f.MetadataJSON) != "" {
		if err := validation.ValidateMetadataJSON(f.MetadataJSON); err != nil {
			return nil, &ValidationError{Field: "metadata", Message: err.Error()}
		}
		if err := json.Unmarshal([]byte(f.MetadataJSON), &metadata); err != nil {
			return nil, &ValidationError{Field: "metadata", Message: "metadata must be a valid JSON object"}
		}
	}

	webhooks := make([]WebhookConfig, 0, len(f.Webhooks))
	for i, row := range f.Webhooks {
		if row.untouched() {
			continue
		}
		if err := validation.ValidateWebhookURL(row.URL); err != nil {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("webhooks[%d].url", i),
				Message: err.Error(),
			}
		}
		events := compactStrings(row.Events)
		if len(events) == 0 {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("webhooks[%d].events", i),
				Message: "at least one event is required",
			}
		}
		webhooks = append(webhooks, WebhookConfig{
			URL:           strings.TrimSpace(row.URL),
			Events:        events,
			Secret:        strings.TrimSpace(row.Secret),
			Retries:       row.Retries,
			CustomHeaders: row.CustomHeaders,
		})
	}

	cfg := &SessionConfig{}

	if f.ClientDeviceName != "" || f.ClientBrowserName != "" {
		cfg.Client = &ClientConfig{
			DeviceName:  strings.TrimSpace(f.ClientDeviceName),
			BrowserName: strings.TrimSpace(f.ClientBrowserName),
		}
	}
	if f.ProxyEnabled {
		cfg.Proxy = &ProxyConfig{
			Server:   strings.TrimSpace(f.ProxyServer),
			Username: strings.TrimSpace(f.ProxyUsername),
			Password: f.ProxyPassword,
		}
	}
	if f.IgnoreStatus || f.IgnoreGroups || f.IgnoreChannels || f.IgnoreBroadcast {
		cfg.Ignore = &IgnoreConfig{
			Status:    f.IgnoreStatus,
			Groups:    f.IgnoreGroups,
			Channels:  f.IgnoreChannels,
			Broadcast: f.IgnoreBroadcast,
		}
	}
	if f.NowebStoreEnabled || f.NowebFullSync || f.MarkOnline {
		noweb := &NowebConfig{MarkOnline: f.MarkOnline}
		if f.NowebStoreEnabled || f.NowebFullSync {
			noweb.Store = &NowebStoreConfig{
				Enabled:  f.NowebStoreEnabled,
				FullSync: f.NowebFullSync,
			}
		}
		cfg.Noweb = noweb
	}
	cfg.Debug = f.Debug
	cfg.Metadata = metadata
	if len(webhooks) > 0 {
		cfg.Webhooks = webhooks
	}

	if cfg.IsEmpty() {
		return nil, nil
	}
	return cfg, nil
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
