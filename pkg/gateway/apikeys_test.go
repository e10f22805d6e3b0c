package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAPIKeyFormat(t *testing.T) {
	assert.NoError(t, ValidateAPIKeyFormat("zk_live_a1b2c3d4e5f6g7h8"))
	assert.NoError(t, ValidateAPIKeyFormat("zk_test_ABCDEF0123456789xyz"))
	assert.NoError(t, ValidateAPIKeyFormat("  zk_live_a1b2c3d4e5f6g7h8  "), "whitespace trimmed")

	assert.Error(t, ValidateAPIKeyFormat(""))
	assert.Error(t, ValidateAPIKeyFormat("zk_live_short"))
	assert.Error(t, ValidateAPIKeyFormat("zk_prod_a1b2c3d4e5f6g7h8"), "unknown environment")
	assert.Error(t, ValidateAPIKeyFormat("sk_live_a1b2c3d4e5f6g7h8"), "wrong prefix")
	assert.Error(t, ValidateAPIKeyFormat("zk_live_has-hyphen-chars"))
}

func TestValidateScope(t *testing.T) {
	assert.NoError(t, ValidateScope("messages:send"))
	assert.NoError(t, ValidateScope("sessions:read"))
	assert.NoError(t, ValidateScope("*:*"))
	assert.NoError(t, ValidateScope("webhooks:*"))

	assert.Error(t, ValidateScope(""))
	assert.Error(t, ValidateScope("messages"))
	assert.Error(t, ValidateScope("Messages:Send"), "uppercase rejected")
	assert.Error(t, ValidateScope("messages:send:extra"))
	assert.Error(t, ValidateScope(":send"))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "zk_live_...h8i9", MaskKey("zk_live_a1b2c3d4e5f6g7h8i9"))
	assert.Equal(t, "****", MaskKey("zk_short"))
	assert.Equal(t, "****", MaskKey(""))
}

func TestCreateAPIKeyClientSideValidation(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, http.StatusOK, `{"success":true,"data":{}}`)
	}, WithToken("jwt-token"))

	ctx := context.Background()

	_, err := client.CreateAPIKey(ctx, CreateAPIKeyRequest{Name: "  ", Scopes: []string{"messages:send"}})
	assert.True(t, IsValidation(err), "blank name")

	_, err = client.CreateAPIKey(ctx, CreateAPIKeyRequest{Name: "ci", Scopes: nil})
	assert.True(t, IsValidation(err), "no scopes")

	_, err = client.CreateAPIKey(ctx, CreateAPIKeyRequest{Name: "ci", Scopes: []string{" ", ""}})
	assert.True(t, IsValidation(err), "scopes all blank after compaction")

	_, err = client.CreateAPIKey(ctx, CreateAPIKeyRequest{Name: "ci", Scopes: []string{"messages"}})
	assert.True(t, IsValidation(err), "malformed scope")

	_, err = client.CreateAPIKey(ctx, CreateAPIKeyRequest{Name: "ci", Scopes: []string{"messages:send"}, Environment: "staging"})
	assert.True(t, IsValidation(err), "unknown environment")

	assert.Zero(t, atomic.LoadInt32(&calls), "validation failures must not reach the backend")
}

func TestCreateAPIKeyRidesBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/api-keys", r.URL.Path)
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get(HeaderAPIKey), "programmatic key must never authenticate key management")

		var req CreateAPIKeyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ci-bot", req.Name)
		assert.Equal(t, []string{"messages:send", "sessions:read"}, req.Scopes)

		writeJSON(t, w, http.StatusCreated,
			`{"success":true,"data":{"id":"k1","name":"ci-bot","scopes":["messages:send","sessions:read"],"key":"zk_live_a1b2c3d4e5f6g7h8","isActive":true}}`)
	}, WithAPIKey("zk_live_zzzzzzzzzzzzzzzz"), WithToken("jwt-token"))

	key, err := client.CreateAPIKey(context.Background(), CreateAPIKeyRequest{
		Name:   "ci-bot",
		Scopes: []string{"messages:send", " sessions:read "},
	})
	require.NoError(t, err)
	assert.Equal(t, "k1", key.ID)
	assert.Equal(t, "zk_live_a1b2c3d4e5f6g7h8", key.Key, "full key present exactly once, on create")
}

func TestUpdateAPIKeyValidatesScopes(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, http.StatusOK, `{"success":true,"data":{"id":"k1"}}`)
	}, WithToken("jwt-token"))

	_, err := client.UpdateAPIKey(context.Background(), "k1", UpdateAPIKeyRequest{Scopes: []string{"bad scope"}})
	assert.True(t, IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&calls))

	_, err = client.UpdateAPIKey(context.Background(), "k1", UpdateAPIKeyRequest{Scopes: []string{"chats:read"}})
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRegenerateAPIKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/api-keys/k1/regenerate", r.URL.Path)
		writeJSON(t, w, http.StatusOK,
			`{"success":true,"data":{"id":"k1","name":"ci-bot","key":"zk_live_freshfreshfresh1","isActive":true}}`)
	}, WithToken("jwt-token"))

	key, err := client.RegenerateAPIKey(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "zk_live_freshfreshfresh1", key.Key)
}

func TestListScopesIdempotent(t *testing.T) {
	// The gateway may order scopes differently per response; the set must
	// come back identical either way.
	bodies := []string{
		`{"success":true,"data":[{"name":"sessions:read"},{"name":"sessions:write"},{"name":"messages:send"}]}`,
		`{"success":true,"data":[{"name":"messages:send"},{"name":"sessions:read"},{"name":"sessions:write"}]}`,
	}
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/api-keys/scopes", r.URL.Path)
		n := atomic.AddInt32(&calls, 1)
		writeJSON(t, w, http.StatusOK, bodies[(n-1)%2])
	}, WithToken("jwt-token"))

	asSet := func(scopes []ScopeInfo) map[string]bool {
		set := make(map[string]bool, len(scopes))
		for _, s := range scopes {
			set[s.Name] = true
		}
		return set
	}

	first, err := client.ListScopes(context.Background())
	require.NoError(t, err)
	second, err := client.ListScopes(context.Background())
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Equal(t, asSet(first), asSet(second))
}
