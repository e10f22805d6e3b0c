package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapkit/zapctl/pkg/gateway"
	"github.com/zapkit/zapctl/pkg/gateway/realtime"
)

type fakeGateway struct {
	mu         sync.Mutex
	session    gateway.Session
	sessionErr error
	qr         *gateway.QRCode
	qrErr      error
	qrCalls    int
}

func (f *fakeGateway) GetSession(ctx context.Context, sessionID string) (*gateway.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	s := f.session
	return &s, nil
}

func (f *fakeGateway) SessionQR(ctx context.Context, sessionID string) (*gateway.QRCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qrCalls++
	if f.qrErr != nil {
		return nil, f.qrErr
	}
	if f.qr == nil {
		return &gateway.QRCode{}, nil
	}
	q := *f.qr
	return &q, nil
}

func (f *fakeGateway) setSession(s gateway.Session) {
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
}

func (f *fakeGateway) setQR(qr string) {
	f.mu.Lock()
	f.qr = &gateway.QRCode{QR: qr}
	f.mu.Unlock()
}

// setState writes snapshot fields directly, standing in for prior merges.
func (r *Reconciler) setState(status gateway.Status, src Source) {
	r.mu.Lock()
	r.snap.Status = status
	r.snap.QRSource = src
	r.mu.Unlock()
}

func qrEvent(t *testing.T, sessionID, qr string, seq int64) realtime.Event {
	t.Helper()
	data, err := json.Marshal(realtime.QRPayload{SessionID: sessionID, QR: qr, Seq: seq})
	require.NoError(t, err)
	return realtime.Event{Name: realtime.EventQR, SessionID: sessionID, Seq: seq, Data: data}
}

func TestApplyPushedQRSeqGuard(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyPushedQR(2, "qr-two")
	snap := r.Snapshot()
	assert.Equal(t, "qr-two", snap.QR)
	assert.Equal(t, SourcePush, snap.QRSource)
	assert.Equal(t, gateway.StatusQRReady, snap.Status)

	r.applyPushedQR(1, "qr-stale")
	assert.Equal(t, "qr-two", r.Snapshot().QR, "replayed frame with lower seq dropped")

	r.applyPushedQR(2, "qr-replay")
	assert.Equal(t, "qr-two", r.Snapshot().QR, "same seq dropped")

	r.applyPushedQR(3, "qr-three")
	assert.Equal(t, "qr-three", r.Snapshot().QR)
}

func TestApplyPushedQRWithoutSeqAlwaysApplies(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyPushedQR(5, "qr-five")
	r.applyPushedQR(0, "qr-unseq")
	assert.Equal(t, "qr-unseq", r.Snapshot().QR, "gateways without seq still refresh the code")
	assert.Equal(t, int64(5), r.lastPushSeq, "an unsequenced frame must not reset the guard")
}

func TestApplyPolledPromotesStarting(t *testing.T) {
	r := New(&fakeGateway{}, "s1")
	r.setState(gateway.StatusStarting, SourceNone)

	r.applyPolled(time.Now(), "qr-from-poll")

	snap := r.Snapshot()
	assert.Equal(t, gateway.StatusQRReady, snap.Status)
	assert.Equal(t, "qr-from-poll", snap.QR)
	assert.Equal(t, SourcePoll, snap.QRSource)
}

func TestApplyPolledLosesToPush(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyPushedQR(1, "qr-push")
	before := r.Snapshot().Revision

	// The poll started before the push landed; its result is stale.
	r.applyPolled(time.Now().Add(-time.Second), "qr-poll")

	snap := r.Snapshot()
	assert.Equal(t, "qr-push", snap.QR)
	assert.Equal(t, SourcePush, snap.QRSource)
	assert.Equal(t, before, snap.Revision, "stale poll must not publish")
}

func TestApplyPolledIgnoredWhenNotWaiting(t *testing.T) {
	r := New(&fakeGateway{}, "s1")
	r.setState(gateway.StatusConnected, SourceNone)

	r.applyPolled(time.Now(), "qr-late")

	snap := r.Snapshot()
	assert.Empty(t, snap.QR)
	assert.Equal(t, gateway.StatusConnected, snap.Status)
}

func TestApplyRecordSeedsState(t *testing.T) {
	r := New(&fakeGateway{}, "s1")
	code := "qr-from-record"

	r.applyRecord(time.Now(), &gateway.Session{
		ID:     "s1",
		Status: "SCAN_QR_CODE",
		QRCode: &code,
	})

	snap := r.Snapshot()
	assert.Equal(t, gateway.StatusQRReady, snap.Status, "alias normalized")
	assert.Equal(t, "qr-from-record", snap.QR)
	assert.Equal(t, SourceRecord, snap.QRSource)
}

func TestApplyRecordStaleAgainstPush(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyPushedQR(1, "qr-push")
	r.applyRecord(time.Now().Add(-time.Minute), &gateway.Session{ID: "s1", Status: gateway.StatusConnected})

	snap := r.Snapshot()
	assert.Equal(t, gateway.StatusQRReady, snap.Status, "record fetched before the push is stale")
	assert.Equal(t, "qr-push", snap.QR)
}

func TestApplyRecordFreshAfterPushWins(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyPushedQR(1, "qr-push")
	r.applyRecord(time.Now(), &gateway.Session{
		ID:          "s1",
		Status:      gateway.StatusConnected,
		PhoneNumber: "6281234567890",
	})

	snap := r.Snapshot()
	assert.Equal(t, gateway.StatusConnected, snap.Status, "a record fetched after the push is newer truth")
	assert.Empty(t, snap.QR, "connected state never shows a code")
	assert.Equal(t, SourceNone, snap.QRSource)
	assert.Equal(t, "6281234567890", snap.PhoneNumber)
}

func TestApplyRecordDoesNotDowngradeQRSource(t *testing.T) {
	r := New(&fakeGateway{}, "s1")
	r.setState(gateway.StatusStarting, SourceNone)
	r.applyPolled(time.Now(), "qr-poll")

	code := "qr-record"
	r.applyRecord(time.Now(), &gateway.Session{ID: "s1", Status: gateway.StatusQRReady, QRCode: &code})

	snap := r.Snapshot()
	assert.Equal(t, "qr-poll", snap.QR, "record QR only fills an empty slot")
	assert.Equal(t, SourcePoll, snap.QRSource)
}

func TestTerminalRecordClearsPolledQR(t *testing.T) {
	r := New(&fakeGateway{}, "s1")
	r.setState(gateway.StatusStarting, SourceNone)
	r.applyPolled(time.Now(), "qr-poll")

	r.applyRecord(time.Now(), &gateway.Session{ID: "s1", Status: gateway.StatusQRTimeout})

	snap := r.Snapshot()
	assert.Equal(t, gateway.StatusQRTimeout, snap.Status)
	assert.Empty(t, snap.QR, "terminal failure must never show a stale code")
	assert.Equal(t, SourceNone, snap.QRSource)
}

func TestPushedTerminalStatusClearsQR(t *testing.T) {
	r := New(&fakeGateway{}, "s1")
	r.applyPushedQR(1, "qr-push")

	r.applyPushedStatus(gateway.StatusDisconnected, "", "", "transport torn down")

	snap := r.Snapshot()
	assert.Equal(t, gateway.StatusDisconnected, snap.Status)
	assert.Empty(t, snap.QR)
	assert.Equal(t, "transport torn down", snap.LastError)
}

func TestPollEnabledGating(t *testing.T) {
	tests := []struct {
		name   string
		status gateway.Status
		source Source
		want   bool
	}{
		{"starting with no code", gateway.StatusStarting, SourceNone, true},
		{"qr ready from poll keeps refreshing", gateway.StatusQRReady, SourcePoll, true},
		{"qr ready from record keeps refreshing", gateway.StatusQRReady, SourceRecord, true},
		{"pushed code suppresses polling", gateway.StatusQRReady, SourcePush, false},
		{"authenticating pauses polling", gateway.StatusAuthenticating, SourceNone, false},
		{"connected never polls", gateway.StatusConnected, SourceNone, false},
		{"authenticated never polls", gateway.StatusAuthenticated, SourceNone, false},
		{"stopped never polls", gateway.StatusStopped, SourceNone, false},
		{"terminal failure never polls", gateway.StatusDisconnected, SourceNone, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&fakeGateway{}, "s1")
			r.setState(tc.status, tc.source)
			assert.Equal(t, tc.want, r.pollEnabled())
		})
	}
}

func TestApplyEventFiltersOtherSessions(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyEvent(context.Background(), qrEvent(t, "other-session", "qr-foreign", 1))

	snap := r.Snapshot()
	assert.Empty(t, snap.QR)
	assert.Equal(t, uint64(0), snap.Revision, "foreign events must not publish")
}

func TestApplyEventQRDecode(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.applyEvent(context.Background(), qrEvent(t, "s1", "qr-pushed", 7))

	snap := r.Snapshot()
	assert.Equal(t, "qr-pushed", snap.QR)
	assert.Equal(t, int64(7), r.lastPushSeq)
}

func TestApplyEventQRSeqFromPayload(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	data, err := json.Marshal(realtime.QRPayload{SessionID: "s1", QR: "qr-x", Seq: 9})
	require.NoError(t, err)
	// Envelope-level seq missing; the payload seq must still guard.
	r.applyEvent(context.Background(), realtime.Event{Name: realtime.EventQR, SessionID: "s1", Data: data})

	assert.Equal(t, int64(9), r.lastPushSeq)
}

func TestApplyEventEmptyQRIgnored(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	data, err := json.Marshal(realtime.QRPayload{SessionID: "s1"})
	require.NoError(t, err)
	r.applyEvent(context.Background(), realtime.Event{Name: realtime.EventQR, SessionID: "s1", Data: data})

	assert.Equal(t, uint64(0), r.Snapshot().Revision)
}

func TestMarkRestarting(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.MarkRestarting()
	snap := r.Snapshot()
	assert.True(t, snap.Restarting)
	rev := snap.Revision

	r.MarkRestarting()
	assert.Equal(t, rev, r.Snapshot().Revision, "idempotent while already restarting")

	r.applyPushedQR(1, "qr-new")
	snap = r.Snapshot()
	assert.False(t, snap.Restarting, "a fresh code means the restart came through")
}

func TestMarkRestartingClearedWhenConnected(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.MarkRestarting()
	r.applyPushedStatus(gateway.StatusConnected, "6281234567890", "Support", "")

	snap := r.Snapshot()
	assert.False(t, snap.Restarting)
	assert.Equal(t, "Support", snap.PushName)
}

func TestFailDeduplicates(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.fail("qr poll", errors.New("gateway down"))
	snap := r.Snapshot()
	assert.Equal(t, "qr poll: gateway down", snap.LastError)
	rev := snap.Revision

	r.fail("qr poll", errors.New("gateway down"))
	assert.Equal(t, rev, r.Snapshot().Revision, "identical error must not republish")

	r.fail("qr poll", errors.New("other failure"))
	assert.Greater(t, r.Snapshot().Revision, rev)
}

func TestFailIgnoresContextCanceled(t *testing.T) {
	r := New(&fakeGateway{}, "s1")

	r.fail("session refresh", context.Canceled)

	snap := r.Snapshot()
	assert.Empty(t, snap.LastError)
	assert.Equal(t, uint64(0), snap.Revision)
}

func TestRefreshRecordsFailure(t *testing.T) {
	fake := &fakeGateway{sessionErr: errors.New("boom")}
	r := New(fake, "s1")

	r.refresh(context.Background())

	assert.Equal(t, "session refresh: boom", r.Snapshot().LastError)
}

func waitForSnapshot(t *testing.T, r *Reconciler, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap, ok := <-r.Updates():
			require.True(t, ok, "updates channel closed while waiting for %s", what)
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func TestRunMergesAllSources(t *testing.T) {
	fake := &fakeGateway{session: gateway.Session{ID: "s1", Status: gateway.StatusStarting}}
	r := New(fake, "s1", WithPollInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan realtime.Event)
	go r.Run(ctx, events)

	waitForSnapshot(t, r, "seed from record", func(s Snapshot) bool {
		return s.Status == gateway.StatusStarting
	})

	// The poll fallback picks up a code while nothing is pushed.
	fake.setQR("qr-from-poll")
	polled := waitForSnapshot(t, r, "polled code", func(s Snapshot) bool {
		return s.QR == "qr-from-poll"
	})
	assert.Equal(t, SourcePoll, polled.QRSource)
	assert.Equal(t, gateway.StatusQRReady, polled.Status)

	// A pushed frame takes over and suppresses further polling.
	events <- qrEvent(t, "s1", "qr-from-push", 1)
	pushed := waitForSnapshot(t, r, "pushed code", func(s Snapshot) bool {
		return s.QR == "qr-from-push"
	})
	assert.Equal(t, SourcePush, pushed.QRSource)

	// Ready event: connected status clears the code; the async record refresh
	// confirms it.
	fake.setSession(gateway.Session{ID: "s1", Status: gateway.StatusConnected, PhoneNumber: "6281234567890"})
	data, err := json.Marshal(realtime.ReadyPayload{SessionID: "s1", PhoneNumber: "6281234567890"})
	require.NoError(t, err)
	events <- realtime.Event{Name: realtime.EventReady, SessionID: "s1", Data: data}

	connected := waitForSnapshot(t, r, "connected", func(s Snapshot) bool {
		return s.Status == gateway.StatusConnected
	})
	assert.Empty(t, connected.QR)
	assert.Equal(t, "6281234567890", connected.PhoneNumber)

	r.Close()
	for range r.Updates() {
	}
}

func TestRunSurvivesClosedEventChannel(t *testing.T) {
	fake := &fakeGateway{session: gateway.Session{ID: "s1", Status: gateway.StatusStarting}}
	r := New(fake, "s1", WithPollInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan realtime.Event)
	go r.Run(ctx, events)
	close(events)

	// Polling keeps working without a socket.
	fake.setQR("qr-after-socket-loss")
	snap := waitForSnapshot(t, r, "poll after socket loss", func(s Snapshot) bool {
		return s.QR == "qr-after-socket-loss"
	})
	assert.Equal(t, SourcePoll, snap.QRSource)

	r.Close()
	for range r.Updates() {
	}
}

func TestDescribe(t *testing.T) {
	qr := Describe(gateway.StatusQRReady)
	assert.Equal(t, "Scan the QR code", qr.Title)
	assert.NotEmpty(t, qr.Action)

	alias := Describe("SCAN_QR_CODE")
	assert.Equal(t, qr, alias, "aliases describe identically")

	connected := Describe(gateway.StatusConnected)
	assert.Equal(t, "Connected", connected.Title)
	assert.Equal(t, "●", connected.Icon)

	unknown := Describe("SOMETHING_ODD")
	assert.Equal(t, "SOMETHING_ODD", unknown.Title, "raw value carried through")
	assert.Equal(t, "?", unknown.Icon)

	blank := Describe("")
	assert.Equal(t, "Unknown", blank.Title)
}
