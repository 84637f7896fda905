package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"txdash/internal/clock"
	userdomain "txdash/internal/user/domain"
)

// State is the lifecycle phase of the session.
type State int

const (
	// StateAnonymous means no session: no token, no user.
	StateAnonymous State = iota
	// StateAuthenticating means a stored token is being verified against
	// the server ("who am I").
	StateAuthenticating
	// StateAuthenticated means a live token and resolved user are held.
	StateAuthenticated
)

// ExpiredMessage is the one-shot message shown after any forced logout.
const ExpiredMessage = "Session expired. Please sign in again."

// ErrTokenExpired is returned by Login when the presented token is
// already expired at call time.
var ErrTokenExpired = errors.New("session: token already expired")

// Authenticator resolves a bearer token to its user. Implemented by the
// API client; network failure is treated the same as expiry by the
// manager — the session never stays in an unverified authenticated state.
type Authenticator interface {
	Me(ctx context.Context, token string) (*userdomain.User, error)
}

// Snapshot is a read-only copy of the session for non-reactive callers
// (the transport layer reads the token from here). ExpiresAtMs is 0 when
// no token is held; it is non-zero exactly when Token is non-empty.
type Snapshot struct {
	State          State
	Token          string
	User           *userdomain.User
	ExpiresAtMs    int64
	SessionMessage string
}

// Manager owns the authoritative session state and keeps the token store,
// the auto-logout timer, and the event channel mutually consistent. All
// session mutations go through the manager; everything else reads
// snapshots.
type Manager struct {
	clk    clock.Clock
	store  TokenStore
	events *EventChannel
	auth   Authenticator
	buffer time.Duration

	mu             sync.Mutex
	state          State
	token          string
	user           *userdomain.User
	expiresAtMs    int64
	sessionMessage string

	loggingOut bool
	timer      clock.Timer
	unsub      func()
}

// NewManager wires the manager to its collaborators and subscribes it to
// the event channel for its lifetime. Every published event triggers a
// logout; the single-flight guard coalesces duplicates. Call Close to
// unsubscribe.
func NewManager(clk clock.Clock, store TokenStore, events *EventChannel, auth Authenticator) *Manager {
	m := &Manager{
		clk:    clk,
		store:  store,
		events: events,
		auth:   auth,
		buffer: DefaultExpiryBuffer,
	}
	m.unsub = events.Subscribe(func(ev ExpiredEvent) {
		m.Logout(ev.Message)
	})
	return m
}

// Close detaches the manager from the event channel and stops the
// auto-logout timer. The session state itself is left as-is.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	m.stopTimerLocked()
}

// Bootstrap restores the session from the token store. A fresh or expired
// token forces a logout with the session-expired message; a live token is
// verified against the server before the session is trusted. Verification
// failure of any kind — including network failure — forces logout rather
// than leaving an unverified authenticated state.
func (m *Manager) Bootstrap(ctx context.Context) {
	token, err := m.store.Load()
	if err != nil || token == "" {
		return
	}

	if IsExpired(token, m.clk.Now(), m.buffer) {
		// The session never existed in memory, so Logout would no-op;
		// clear the stale token and surface the message directly.
		m.mu.Lock()
		m.sessionMessage = ExpiredMessage
		m.mu.Unlock()
		_ = m.store.Clear()
		return
	}

	expiresAtMs, _ := DecodeExpiry(token)
	m.mu.Lock()
	m.state = StateAuthenticating
	m.token = token
	m.expiresAtMs = expiresAtMs
	m.mu.Unlock()

	user, err := m.auth.Me(ctx, token)
	if err != nil {
		m.Logout(ExpiredMessage)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticating {
		// A concurrent logout won while we were on the wire.
		return
	}
	m.state = StateAuthenticated
	m.user = user
	m.armTimerLocked()
}

// Login installs a fresh token and user. A token already expired at call
// time is rejected through the forced-logout path and ErrTokenExpired is
// returned. Any prior session message is cleared.
func (m *Manager) Login(token string, user *userdomain.User) error {
	expiresAtMs, ok := DecodeExpiry(token)
	if !ok || !m.clk.Now().Before(time.UnixMilli(expiresAtMs)) {
		m.Logout(ExpiredMessage)
		return ErrTokenExpired
	}

	if err := m.store.Save(token); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticated
	m.token = token
	m.user = user
	m.expiresAtMs = expiresAtMs
	m.sessionMessage = ""
	m.armTimerLocked()
	return nil
}

// Logout tears the session down: cancels the timer, clears the store
// exactly once, and nulls the session. message, when non-empty, becomes
// the one-shot session message. Logout is idempotent under concurrency:
// overlapping calls from the timer, the event channel, and explicit
// logout collapse into one transition with one storage-clear side effect.
func (m *Manager) Logout(message string) {
	m.mu.Lock()
	if m.loggingOut || m.state == StateAnonymous {
		m.mu.Unlock()
		return
	}
	m.loggingOut = true
	m.stopTimerLocked()
	m.state = StateAnonymous
	m.token = ""
	m.user = nil
	m.expiresAtMs = 0
	if message != "" {
		m.sessionMessage = message
	}
	m.mu.Unlock()

	// Storage is cleared outside the lock; the guard has already made
	// this transition exclusive.
	_ = m.store.Clear()

	m.mu.Lock()
	m.loggingOut = false
	m.mu.Unlock()
}

// Snapshot returns a read-only copy of the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:          m.state,
		Token:          m.token,
		User:           m.user,
		ExpiresAtMs:    m.expiresAtMs,
		SessionMessage: m.sessionMessage,
	}
}

// ClearSessionMessage dismisses the one-shot session message.
func (m *Manager) ClearSessionMessage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionMessage = ""
}

// armTimerLocked cancels any previous timer and arms a new one for the
// current expiry. An already-passed expiry logs out synchronously on a
// fresh goroutine-free path rather than through a zero-delay timer.
// Caller holds m.mu.
func (m *Manager) armTimerLocked() {
	m.stopTimerLocked()
	if m.expiresAtMs == 0 {
		return
	}
	delay := time.UnixMilli(m.expiresAtMs).Sub(m.clk.Now())
	if delay <= 0 {
		// Expiry already passed: log out synchronously instead of arming
		// a zero-delay timer. The caller holds the lock, so the side
		// effects run inline here rather than through Logout.
		m.state = StateAnonymous
		m.token = ""
		m.user = nil
		m.expiresAtMs = 0
		m.sessionMessage = ExpiredMessage
		_ = m.store.Clear()
		return
	}
	m.timer = m.clk.AfterFunc(delay, func() {
		m.Logout(ExpiredMessage)
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
