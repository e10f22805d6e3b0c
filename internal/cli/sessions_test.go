package cli

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkit/zapctl/pkg/gateway"
)

func TestSessionsCreate(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{"id":"sess_1","name":"supportdesk","status":"STOPPED","createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"}`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "create", "supportdesk")
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "POST /api/sessions", rec.call(0))

	var req gateway.CreateSessionRequest
	rec.body(t, 0, &req)
	assert.Equal(t, "supportdesk", req.Name)
	assert.Nil(t, req.Config, "a bare create carries no config")

	assert.Contains(t, out, `session "supportdesk" created`)
	assert.Contains(t, out, "zapctl sessions start supportdesk")
}

func TestSessionsCreateSendsConfiguredSections(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{"id":"sess_2","name":"crawler","status":"STOPPED","createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"}`)
	})

	_, _, err := runCommand(t, newSessionsCmd(testFactory(srv)),
		"create", "crawler",
		"--description", "outbound crawler",
		"--proxy", "--proxy-server", "http://proxy.internal:3128",
		"--metadata", `{"team":"qa"}`,
		"--engine-debug",
		"--webhook-url", "https://hooks.example.test/wa",
		"--webhook-events", "message,message.ack",
		"--webhook-secret", "hush",
	)
	require.NoError(t, err)

	var req gateway.CreateSessionRequest
	rec.body(t, 0, &req)

	assert.Equal(t, "outbound crawler", req.Description)
	require.NotNil(t, req.Config)
	require.NotNil(t, req.Config.Proxy)
	assert.Equal(t, "http://proxy.internal:3128", req.Config.Proxy.Server)
	assert.True(t, req.Config.Debug)
	assert.Equal(t, map[string]interface{}{"team": "qa"}, req.Config.Metadata)
	require.Len(t, req.Config.Webhooks, 1)
	assert.Equal(t, "https://hooks.example.test/wa", req.Config.Webhooks[0].URL)
	assert.Equal(t, []string{"message", "message.ack"}, req.Config.Webhooks[0].Events)
	assert.Equal(t, "hush", req.Config.Webhooks[0].Secret)
	assert.Nil(t, req.Config.Ignore, "untouched sections stay pruned")
}

func TestSessionsCreateRejectsBadNameBeforeDialing(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	})

	_, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "create", "bad name!")
	require.Error(t, err)
	assert.True(t, gateway.IsValidation(err))
	assertNoCalls(t, rec)
}

func TestSessionsList(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions", r.URL.Path)
		respondData(t, w, `[
			{"id":"a","name":"supportdesk","status":"CONNECTED","phoneNumber":"+628123456789","counts":{"messages":42,"chats":3,"webhooks":1},"createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"},
			{"id":"b","name":"staging","status":"SCAN_QR_CODE","createdAt":"2025-03-05T10:00:00Z","updatedAt":"2025-03-05T10:00:00Z"}
		]`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "list")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "supportdesk")
	assert.Contains(t, out, "+628123456789")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "staging")
	// Status aliases render under their canonical name.
	assert.Contains(t, out, "QR_READY")
}

func TestSessionsGetUsesSelectedSession(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1", r.URL.Path)
		respondData(t, w, `{"id":"s1","name":"supportdesk","status":"WORKING","phoneNumber":"+628123456789","pushName":"Support","config":{"proxy":{"server":"http://proxy.internal:3128"}},"createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"}`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "get")
	require.NoError(t, err)

	assert.Contains(t, out, "supportdesk")
	assert.Contains(t, out, "CONNECTED", "WORKING is an alias for CONNECTED")
	assert.Contains(t, out, "Support")
	assert.Contains(t, out, "config:")
	assert.Contains(t, out, "proxy.internal")
}

func TestSessionsGetJSONOutput(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		respondData(t, w, `{"id":"s1","name":"supportdesk","status":"SCAN_QR_CODE","createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"}`)
	})

	f := testFactory(srv)
	f.Output = "json"
	out, _, err := runCommand(t, newSessionsCmd(f), "get", "s1")
	require.NoError(t, err)

	var sess gateway.Session
	require.NoError(t, json.Unmarshal([]byte(out), &sess))
	assert.Equal(t, "supportdesk", sess.Name)
	assert.Equal(t, gateway.StatusQRReady, sess.Status)
}

func TestSessionsGetWithoutSelection(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
	})

	f := testFactory(srv)
	f.Session = ""
	_, _, err := runCommand(t, newSessionsCmd(f), "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session selected")
	assertNoCalls(t, rec)
}

func TestSessionsLifecycleCommands(t *testing.T) {
	cases := []struct {
		args []string
		want string
		out  string
	}{
		{[]string{"start", "s1"}, "POST /api/sessions/s1/start", `session "s1" starting`},
		{[]string{"stop", "s1"}, "POST /api/sessions/s1/stop", `session "s1" stopped`},
		{[]string{"restart", "s1"}, "POST /api/sessions/s1/restart", `session "s1" restarting`},
		{[]string{"logout", "s1"}, "POST /api/sessions/s1/logout", `session "s1" logged out`},
		{[]string{"delete", "s1"}, "DELETE /api/sessions/s1", `session "s1" deleted`},
	}

	for _, tc := range cases {
		t.Run(tc.args[0], func(t *testing.T) {
			rec := &recorder{}
			srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				rec.record(r)
				respondData(t, w, `{}`)
			})

			out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), tc.args...)
			require.NoError(t, err)
			require.Equal(t, 1, rec.count())
			assert.Equal(t, tc.want, rec.call(0))
			assert.Contains(t, out, tc.out)
		})
	}
}

func TestSessionsStartAll(t *testing.T) {
	var starts int32
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			respondData(t, w, `[
				{"id":"a","name":"a","status":"CONNECTED","createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"},
				{"id":"b","name":"b","status":"STOPPED","createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"}
			]`)
			return
		}
		atomic.AddInt32(&starts, 1)
		respondData(t, w, `{}`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "start", "--all")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&starts), "connected sessions are not started")
	assert.Contains(t, out, "started 1, already linked 1, failed 0")
}

func TestSessionsUpdateSendsDescriptionPointer(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{"id":"s1","name":"supportdesk","status":"CONNECTED","createdAt":"2025-03-04T10:00:00Z","updatedAt":"2025-03-04T10:00:00Z"}`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)),
		"update", "supportdesk", "--description", "  tier one  ")
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "PATCH /api/sessions/supportdesk", rec.call(0))

	var body map[string]interface{}
	rec.body(t, 0, &body)
	assert.Equal(t, "tier one", body["description"])
	assert.Contains(t, out, `session "supportdesk" updated`)
}

func TestSessionsQRWritesPNG(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/qr", r.URL.Path)
		respondData(t, w, `{"qr":"2@raw-pairing-payload"}`)
	})

	outFile := filepath.Join(t.TempDir(), "qr.png")
	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "qr", "--out", outFile)
	require.NoError(t, err)

	assert.Contains(t, out, "QR image saved to "+outFile)
	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data[:8])
}

func TestSessionsQRWithoutCode(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		respondData(t, w, `{"qr":""}`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "qr")
	require.NoError(t, err)
	assert.Contains(t, out, "no QR code available")
}

func TestSessionsPair(t *testing.T) {
	rec := &recorder{}
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		respondData(t, w, `{"code":"ABCD-1234"}`)
	})

	out, _, err := runCommand(t, newSessionsCmd(testFactory(srv)), "pair", "+628123456789")
	require.NoError(t, err)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "POST /api/sessions/s1/pairing-code", rec.call(0))

	var body map[string]string
	rec.body(t, 0, &body)
	assert.Equal(t, "+628123456789", body["phoneNumber"])

	assert.Contains(t, out, "pairing code: ABCD-1234")
	assert.Contains(t, out, "Linked devices")
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", formatTime(time.Time{}))
	assert.NotEmpty(t, formatTime(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)))
}
