// Package reconcile merges the three sources of session connection state
// exposed by the gateway (pushed socket events, the QR poll fallback and the
// fetched session record) into one consistent snapshot per session.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zapkit/zapctl/pkg/gateway"
	"github.com/zapkit/zapctl/pkg/gateway/realtime"
	"github.com/zapkit/zapctl/pkg/log"
)

const (
	defaultPollInterval = 10 * time.Second
	updatesBuffer       = 16
)

// Source identifies which input supplied the QR value held in a snapshot.
// Higher values outrank lower ones.
type Source int

const (
	SourceNone Source = iota
	SourceRecord
	SourcePoll
	SourcePush
)

func (s Source) String() string {
	switch s {
	case SourceRecord:
		return "record"
	case SourcePoll:
		return "poll"
	case SourcePush:
		return "push"
	default:
		return "none"
	}
}

// Gateway is the slice of the API client the reconciler needs.
type Gateway interface {
	GetSession(ctx context.Context, sessionID string) (*gateway.Session, error)
	SessionQR(ctx context.Context, sessionID string) (*gateway.QRCode, error)
}

// Snapshot is one observed connection state. QR is empty whenever no code
// should be shown; QRSource tells which input produced a non-empty value.
type Snapshot struct {
	SessionID   string
	Status      gateway.Status
	QR          string
	QRSource    Source
	Restarting  bool
	PhoneNumber string
	PushName    string
	LastError   string
	Revision    uint64
	UpdatedAt   time.Time
}

// Reconciler tracks one session. Pushed events always win over polled
// values, polled values over the session record. The QR poll runs only while
// the session is waiting for a code and no pushed code is live, so an idle
// or connected session generates no background traffic.
type Reconciler struct {
	gw           Gateway
	sessionID    string
	pollInterval time.Duration

	flight singleflight.Group

	mu          sync.RWMutex
	snap        Snapshot
	lastPushSeq int64
	lastPushAt  time.Time
	closed      bool

	updates chan Snapshot

	closeOnce sync.Once
	quit      chan struct{}
}

type Option func(*Reconciler)

// WithPollInterval overrides the default 10s QR poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func New(gw Gateway, sessionID string, opts ...Option) *Reconciler {
	r := &Reconciler{
		gw:           gw,
		sessionID:    sessionID,
		pollInterval: defaultPollInterval,
		updates:      make(chan Snapshot, updatesBuffer),
		quit:         make(chan struct{}),
	}
	r.snap = Snapshot{SessionID: sessionID}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run seeds the state from the session record, then applies socket events
// and poll results until ctx is cancelled or Close is called. The updates
// channel is closed on return. Call it once.
func (r *Reconciler) Run(ctx context.Context, events <-chan realtime.Event) {
	defer func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.updates)
	}()

	r.refresh(ctx)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		case ev, ok := <-events:
			if !ok {
				// The socket is gone; keep serving poll and record state.
				events = nil
				continue
			}
			r.applyEvent(ctx, ev)
		case <-ticker.C:
			if r.pollEnabled() {
				go r.poll(ctx)
			}
		}
	}
}

// Snapshot returns the current merged state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Updates emits a snapshot after every applied change. Slow consumers miss
// intermediate snapshots, not the latest state, which Snapshot always has.
func (r *Reconciler) Updates() <-chan Snapshot {
	return r.updates
}

// MarkRestarting flags the session as restarting until the next pushed QR
// frame or a connected status clears it.
func (r *Reconciler) MarkRestarting() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap.Restarting {
		return
	}
	r.snap.Restarting = true
	r.publishLocked()
}

// Refresh refetches the session record outside the regular cycle. It blocks
// until the fetch resolves; concurrent calls share one flight.
func (r *Reconciler) Refresh(ctx context.Context) {
	r.refresh(ctx)
}

// Close stops the run loop. Safe to call more than once.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
}

func (r *Reconciler) applyEvent(ctx context.Context, ev realtime.Event) {
	if ev.SessionID != "" && ev.SessionID != r.sessionID {
		return
	}

	switch ev.Name {
	case realtime.EventQR:
		var p realtime.QRPayload
		if err := ev.Decode(&p); err != nil || p.QR == "" {
			return
		}
		seq := ev.Seq
		if seq == 0 {
			seq = p.Seq
		}
		r.applyPushedQR(seq, p.QR)
	case realtime.EventReady:
		var p realtime.ReadyPayload
		_ = ev.Decode(&p)
		r.applyPushedStatus(gateway.StatusConnected, p.PhoneNumber, p.PushName, "")
		go r.refresh(ctx)
	case realtime.EventDisconnected:
		var p realtime.DisconnectedPayload
		_ = ev.Decode(&p)
		r.applyPushedStatus(gateway.StatusDisconnected, "", "", p.Reason)
		go r.refresh(ctx)
	case realtime.EventQRTimeout:
		r.applyPushedStatus(gateway.StatusQRTimeout, "", "", "")
		go r.refresh(ctx)
	case realtime.EventAuthFailure:
		var p realtime.AuthFailurePayload
		_ = ev.Decode(&p)
		r.applyPushedStatus(gateway.StatusFailed, "", "", p.Reason)
		go r.refresh(ctx)
	}
}

func (r *Reconciler) applyPushedQR(seq int64, qr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// QR frames carry a monotonic seq; replayed or reordered frames drop.
	if seq != 0 && seq <= r.lastPushSeq {
		return
	}
	if seq != 0 {
		r.lastPushSeq = seq
	}
	r.lastPushAt = time.Now()

	r.snap.Status = gateway.StatusQRReady
	r.snap.QR = qr
	r.snap.QRSource = SourcePush
	r.snap.Restarting = false
	r.snap.LastError = ""
	r.publishLocked()
}

func (r *Reconciler) applyPushedStatus(status gateway.Status, phone, pushName, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastPushAt = time.Now()
	r.snap.Status = status
	r.clearQRLocked()
	if phone != "" {
		r.snap.PhoneNumber = phone
	}
	if pushName != "" {
		r.snap.PushName = pushName
	}
	if status.IsConnected() {
		r.snap.Restarting = false
	}
	r.snap.LastError = reason
	r.publishLocked()
}

// pollEnabled gates the QR poll: only while not connected, not
// authenticating, still waiting for a code and no pushed code is live.
func (r *Reconciler) pollEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.snap.Status
	if s.IsConnected() || s == gateway.StatusAuthenticating {
		return false
	}
	return s.WaitingForQR() && r.snap.QRSource != SourcePush
}

type polledQR struct {
	at   time.Time
	code *gateway.QRCode
}

func (r *Reconciler) poll(ctx context.Context) {
	v, err, _ := r.flight.Do("qr", func() (interface{}, error) {
		at := time.Now()
		code, err := r.gw.SessionQR(ctx, r.sessionID)
		if err != nil {
			return nil, err
		}
		return polledQR{at: at, code: code}, nil
	})
	if err != nil {
		r.fail("qr poll", err)
		return
	}
	p, ok := v.(polledQR)
	if !ok || p.code == nil || p.code.QR == "" {
		return
	}
	r.applyPolled(p.at, p.code.QR)
}

func (r *Reconciler) applyPolled(startedAt time.Time, qr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A push applied while the poll was in flight is fresher than its result.
	if r.lastPushAt.After(startedAt) || r.snap.QRSource == SourcePush {
		return
	}
	if !r.snap.Status.WaitingForQR() {
		return
	}

	r.snap.QR = qr
	r.snap.QRSource = SourcePoll
	if r.snap.Status == gateway.StatusStarting {
		r.snap.Status = gateway.StatusQRReady
	}
	r.snap.LastError = ""
	r.publishLocked()
}

type fetchedRecord struct {
	at   time.Time
	sess *gateway.Session
}

func (r *Reconciler) refresh(ctx context.Context) {
	v, err, _ := r.flight.Do("session", func() (interface{}, error) {
		at := time.Now()
		sess, err := r.gw.GetSession(ctx, r.sessionID)
		if err != nil {
			return nil, err
		}
		return fetchedRecord{at: at, sess: sess}, nil
	})
	if err != nil {
		r.fail("session refresh", err)
		return
	}
	rec, ok := v.(fetchedRecord)
	if !ok || rec.sess == nil {
		return
	}
	r.applyRecord(rec.at, rec.sess)
}

func (r *Reconciler) applyRecord(fetchedAt time.Time, sess *gateway.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A push applied while the fetch was in flight outranks the record.
	if r.lastPushAt.After(fetchedAt) {
		return
	}

	r.snap.Status = gateway.NormalizeStatus(sess.Status)
	if sess.PhoneNumber != "" {
		r.snap.PhoneNumber = sess.PhoneNumber
	}
	if sess.PushName != "" {
		r.snap.PushName = sess.PushName
	}
	if r.snap.QRSource == SourceNone && sess.QRCode != nil && *sess.QRCode != "" {
		r.snap.QR = *sess.QRCode
		r.snap.QRSource = SourceRecord
	}
	if r.snap.Status.IsConnected() {
		r.snap.Restarting = false
	}
	r.snap.LastError = ""
	r.enforceTerminalLocked()
	r.publishLocked()
}

func (r *Reconciler) fail(op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Session(op, r.sessionID).Warn(err.Error())

	msg := op + ": " + err.Error()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap.LastError == msg {
		return
	}
	r.snap.LastError = msg
	r.publishLocked()
}

func (r *Reconciler) clearQRLocked() {
	r.snap.QR = ""
	r.snap.QRSource = SourceNone
}

// enforceTerminalLocked force-clears the QR on terminal failure states and
// once the session is connected, whatever source set it.
func (r *Reconciler) enforceTerminalLocked() {
	if r.snap.Status.IsTerminalFailure() || r.snap.Status.IsConnected() {
		r.clearQRLocked()
	}
}

func (r *Reconciler) publishLocked() {
	r.snap.Revision++
	r.snap.UpdatedAt = time.Now()
	if r.closed {
		return
	}
	select {
	case r.updates <- r.snap:
	default:
	}
}
