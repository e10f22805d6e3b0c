package gateway

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// APIKey is a programmatic credential. The full key value appears exactly
// once, in the create/regenerate response; every other read carries only the
// masked preview, so callers must tell the user to copy it immediately.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Scopes     []string   `json:"scopes"`
	KeyPreview string     `json:"keyPreview,omitempty"`
	Key        string     `json:"key,omitempty"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// ScopeInfo describes one grantable permission.
type ScopeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

const (
	KeyEnvironmentLive = "live"
	KeyEnvironmentTest = "test"
)

var (
	apiKeyPattern = regexp.MustCompile(`^zk_(live|test)_[A-Za-z0-9]{16,}$`)
	scopePattern  = regexp.MustCompile(`^([a-z][a-z0-9-]*|\*):([a-z][a-z0-9-]*|\*)$`)
)

// ValidateAPIKeyFormat checks the zk_<env>_<random> shape without calling
// the backend.
func ValidateAPIKeyFormat(key string) error {
	if !apiKeyPattern.MatchString(strings.TrimSpace(key)) {
		return &ValidationError{Field: "apiKey", Message: "key must look like zk_live_... or zk_test_..."}
	}
	return nil
}

// ValidateScope checks the resource:action shape.
func ValidateScope(scope string) error {
	if !scopePattern.MatchString(scope) {
		return &ValidationError{Field: "scopes", Message: fmt.Sprintf("scope must look like resource:action, got %q", scope)}
	}
	return nil
}

// MaskKey renders the preview form shown in listings: first eight and last
// four characters with the middle elided.
func MaskKey(key string) string {
	if len(key) < 13 {
		return "****"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

type CreateAPIKeyRequest struct {
	Name        string   `json:"name"`
	Scopes      []string `json:"scopes"`
	Environment string   `json:"environment,omitempty"`
}

type UpdateAPIKeyRequest struct {
	Name     *string  `json:"name,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
	IsActive *bool    `json:"isActive,omitempty"`
}

// API-key management is dashboard-scoped: every call below rides the bearer
// token, never a programmatic key.

func (c *Client) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := c.doBearer(ctx, http.MethodGet, "/api-keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *Client) CreateAPIKey(ctx context.Context, req CreateAPIKeyRequest) (*APIKey, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "key name cannot be empty"}
	}
	req.Scopes = compactStrings(req.Scopes)
	if len(req.Scopes) == 0 {
		return nil, &ValidationError{Field: "scopes", Message: "at least one scope is required"}
	}
	for _, scope := range req.Scopes {
		if err := ValidateScope(scope); err != nil {
			return nil, err
		}
	}
	switch req.Environment {
	case "", KeyEnvironmentLive, KeyEnvironmentTest:
	default:
		return nil, &ValidationError{Field: "environment", Message: "environment must be live or test"}
	}

	var key APIKey
	if err := c.doBearer(ctx, http.MethodPost, "/api-keys", req, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (c *Client) GetAPIKey(ctx context.Context, id string) (*APIKey, error) {
	var key APIKey
	if err := c.doBearer(ctx, http.MethodGet, "/api-keys/"+id, nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (c *Client) UpdateAPIKey(ctx context.Context, id string, req UpdateAPIKeyRequest) (*APIKey, error) {
	if req.Scopes != nil {
		req.Scopes = compactStrings(req.Scopes)
		for _, scope := range req.Scopes {
			if err := ValidateScope(scope); err != nil {
				return nil, err
			}
		}
	}
	var key APIKey
	if err := c.doBearer(ctx, http.MethodPatch, "/api-keys/"+id, req, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (c *Client) DeleteAPIKey(ctx context.Context, id string) error {
	return c.doBearer(ctx, http.MethodDelete, "/api-keys/"+id, nil, nil)
}

// RegenerateAPIKey rotates the secret; the response is the only place the new
// full key ever appears.
func (c *Client) RegenerateAPIKey(ctx context.Context, id string) (*APIKey, error) {
	var key APIKey
	if err := c.doBearer(ctx, http.MethodPost, "/api-keys/"+id+"/regenerate", nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListScopes returns the grantable scope catalogue. The set is stable: two
// calls yield the same scopes regardless of ordering.
func (c *Client) ListScopes(ctx context.Context) ([]ScopeInfo, error) {
	var scopes []ScopeInfo
	if err := c.doBearer(ctx, http.MethodGet, "/api-keys/scopes", nil, &scopes); err != nil {
		return nil, err
	}
	return scopes, nil
}
