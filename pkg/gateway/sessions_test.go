package gateway

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSessionNormalizesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK,
			`{"success":true,"data":{"id":"s1","name":"support","status":"SCAN_QR_CODE"}}`)
	})

	session, err := client.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusQRReady, session.Status, "legacy alias folded on read")
}

func TestRequestPairingCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/pairing-code", r.URL.Path)
		writeJSON(t, w, http.StatusOK, `{"success":true,"data":{"code":"ABCD-1234"}}`)
	})

	code, err := client.RequestPairingCode(context.Background(), "s1", "+6281234567890")
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", code)

	_, err = client.RequestPairingCode(context.Background(), "s1", "0812")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "phoneNumber", vErr.Field)
}

func TestStartAllSessionsSkipsConnected(t *testing.T) {
	var mu sync.Mutex
	started := map[string]bool{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(t, w, http.StatusOK, `{"success":true,"data":[
				{"id":"a","name":"a","status":"CONNECTED"},
				{"id":"b","name":"b","status":"STOPPED"},
				{"id":"c","name":"c","status":"AUTHENTICATED"},
				{"id":"d","name":"d","status":"DISCONNECTED"}
			]}`)
			return
		}
		id := strings.Split(r.URL.Path, "/")[3]
		mu.Lock()
		started[id] = true
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, `{"success":true}`)
	})

	report, err := client.StartAllSessions(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Started)
	assert.Equal(t, int64(2), report.Skipped, "CONNECTED and AUTHENTICATED both count as linked")
	assert.Equal(t, int64(0), report.Failed)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, started["b"])
	assert.True(t, started["d"])
	assert.False(t, started["a"])
	assert.False(t, started["c"])
}

func TestStartAllSessionsCountsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var startCalls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(t, w, http.StatusOK, `{"success":true,"data":[{"id":"a","name":"a","status":"STOPPED"}]}`)
			return
		}
		atomic.AddInt32(&startCalls, 1)
		writeJSON(t, w, http.StatusBadRequest, `{"success":false,"message":"engine rejected"}`)
		// Cancel after the first failure so the test does not sit through the
		// full backoff schedule.
		cancel()
	})

	report, err := client.StartAllSessions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Failed)
	assert.Equal(t, int64(0), report.Started)
	assert.Equal(t, int32(1), atomic.LoadInt32(&startCalls))
}

func TestStartAllSessionsListFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, `{"success":false,"message":"bad key"}`)
	}, WithReadRetry(0))

	_, err := client.StartAllSessions(context.Background(), 4)
	assert.True(t, IsUnauthorized(err))
}

func TestSessionLifecyclePaths(t *testing.T) {
	var gotPath, gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	require.NoError(t, client.StartSession(ctx, "s1"))
	assert.Equal(t, "/api/sessions/s1/start", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)

	require.NoError(t, client.StopSession(ctx, "s1"))
	assert.Equal(t, "/api/sessions/s1/stop", gotPath)

	require.NoError(t, client.RestartSession(ctx, "s1"))
	assert.Equal(t, "/api/sessions/s1/restart", gotPath)

	require.NoError(t, client.LogoutSession(ctx, "s1"))
	assert.Equal(t, "/api/sessions/s1/logout", gotPath)

	require.NoError(t, client.DeleteSession(ctx, "s1"))
	assert.Equal(t, "/api/sessions/s1", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
}
