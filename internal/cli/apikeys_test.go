package cli

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func TestAPIKeysCreateRevealsKeyOnce(t *testing.T) {
	token := bearerToken(t, time.Now().Add(time.Hour))

	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-API-Key"), "key management always rides the dashboard token")
		respondData(t, w, `{"id":"key_1","name":"ci-bot","scopes":["messages:send","sessions:read"],"key":"zk_live_a1b2c3d4e5f6a7b8c9d0","isActive":true,"createdAt":"2025-03-04T10:00:00Z"}`)
	})

	f := testFactory(srv)
	f.APIKey = ""
	f.Token = token

	out, _, err := runCommand(t, newAPIKeysCmd(f),
		"create", "ci-bot", "--scope", "messages:send", "--scope", "sessions:read", "--env", "live")
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "POST /api/api-keys", rec.call(0))

	var req gateway.CreateAPIKeyRequest
	rec.body(t, 0, &req)
	assert.Equal(t, "ci-bot", req.Name)
	assert.Equal(t, []string{"messages:send", "sessions:read"}, req.Scopes)
	assert.Equal(t, "live", req.Environment)

	assert.Contains(t, out, "zk_live_a1b2c3d4e5f6a7b8c9d0")
	assert.Contains(t, out, "copy the key now, it will not be shown again")
	assert.NotContains(t, out, "looks expired")
}

func TestAPIKeysCreateRequiresScope(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(time.Hour))

	_, _, err := runCommand(t, newAPIKeysCmd(f), "create", "ci-bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	assert.Contains(t, err.Error(), `"scope"`)
	assertNoCalls(t, rec)
}

func TestAPIKeysCreateWithoutToken(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	})

	f := testFactory(srv)
	f.Token = ""

	_, _, err := runCommand(t, newAPIKeysCmd(f),
		"create", "ci-bot", "--scope", "messages:send")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard bearer token is not configured")
	assertNoCalls(t, rec)
}

func TestAPIKeysListWarnsOnExpiredToken(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/api-keys", r.URL.Path)
		respondData(t, w, `[
			{"id":"key_1","name":"ci-bot","scopes":["messages:send"],"keyPreview":"zk_live_...h8i9","isActive":true,"createdAt":"2025-03-04T10:00:00Z"},
			{"id":"key_2","name":"old-bot","scopes":["*:*"],"keyPreview":"zk_test_...a1b2","isActive":false,"lastUsedAt":"2025-02-01T08:00:00Z","createdAt":"2025-01-04T10:00:00Z"}
		]`)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(-time.Hour))

	out, _, err := runCommand(t, newAPIKeysCmd(f), "list")
	require.NoError(t, err)

	assert.Contains(t, out, "bearer token looks expired; log in to the dashboard again")
	assert.Contains(t, out, "zk_live_...h8i9")
	assert.Contains(t, out, "never", "keys without lastUsedAt show never")
	assert.Contains(t, out, "disabled")
}

func TestAPIKeysUpdateRejectsConflictingToggles(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(time.Hour))

	_, _, err := runCommand(t, newAPIKeysCmd(f),
		"update", "key_1", "--activate", "--deactivate")
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
	assert.Contains(t, err.Error(), "pass --activate or --deactivate, not both")
	assertNoCalls(t, rec)
}

func TestAPIKeysUpdateSendsOnlyChangedFields(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{"id":"key_1","name":"ci-bot","scopes":["messages:send"],"isActive":false,"createdAt":"2025-03-04T10:00:00Z"}`)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(time.Hour))

	out, _, err := runCommand(t, newAPIKeysCmd(f), "update", "key_1", "--deactivate")
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "PATCH /api/api-keys/key_1", rec.call(0))

	keys := rec.keys(t, 0)
	assert.NotContains(t, keys, "name", "an untouched name flag is not sent")

	var req gateway.UpdateAPIKeyRequest
	rec.body(t, 0, &req)
	require.NotNil(t, req.IsActive)
	assert.False(t, *req.IsActive)
	assert.Contains(t, out, "key key_1 updated")
}

func TestAPIKeysRegenerate(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{"id":"key_1","name":"ci-bot","scopes":["messages:send"],"key":"zk_live_fresh0secret1value2","isActive":true,"createdAt":"2025-03-04T10:00:00Z"}`)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(time.Hour))

	out, _, err := runCommand(t, newAPIKeysCmd(f), "regenerate", "key_1")
	require.NoError(t, err)

	assert.Equal(t, "POST /api/api-keys/key_1/regenerate", rec.call(0))
	assert.Contains(t, out, "zk_live_fresh0secret1value2")
	assert.Contains(t, out, "copy the key now")
}

func TestAPIKeysDelete(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{}`)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(time.Hour))

	out, _, err := runCommand(t, newAPIKeysCmd(f), "delete", "key_1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE /api/api-keys/key_1", rec.call(0))
	assert.Contains(t, out, "key deleted")
}

func TestAPIKeysScopes(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/api-keys/scopes", r.URL.Path)
		respondData(t, w, `[
			{"name":"messages:send","description":"send messages and media"},
			{"name":"sessions:read","description":"inspect sessions"}
		]`)
	})

	f := testFactory(srv)
	f.Token = bearerToken(t, time.Now().Add(time.Hour))

	out, _, err := runCommand(t, newAPIKeysCmd(f), "scopes")
	require.NoError(t, err)
	assert.Contains(t, out, "messages:send")
	assert.Contains(t, out, "inspect sessions")
}
