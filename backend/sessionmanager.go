package backend

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/berrberr/gshotkeys/backend/session"
	"github.com/google/uuid"
)

// outbound command buffer per session; overflowing commands are
// dropped (delivery is fire-and-forget)
const commandQueueDepth = 16

// SessionManager owns the set of live sessions and their reported
// states. All mutations go through it, and it notifies registered
// callbacks synchronously after each change. The live session structs
// never leave the manager's lock: queries and callbacks receive
// copies, so callers can read them without racing SetForeground and
// SetEnabled.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	queues   map[string]chan session.Command
	store    *session.StateStore

	onRegistered       []func(*session.Session)
	onStateReport      []func(*session.Session, session.PlayerState)
	onRemoved          []func(sessionID string)
	onForegroundChange []func(*session.Session)
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session.Session),
		queues:   make(map[string]chan session.Command),
		store:    session.NewStateStore(),
	}
}

func (m *SessionManager) Store() *session.StateStore {
	return m.store
}

func (m *SessionManager) OnRegistered(cb func(*session.Session)) {
	m.onRegistered = append(m.onRegistered, cb)
}

func (m *SessionManager) OnStateReport(cb func(*session.Session, session.PlayerState)) {
	m.onStateReport = append(m.onStateReport, cb)
}

func (m *SessionManager) OnRemoved(cb func(sessionID string)) {
	m.onRemoved = append(m.onRemoved, cb)
}

func (m *SessionManager) OnForegroundChange(cb func(*session.Session)) {
	m.onForegroundChange = append(m.onForegroundChange, cb)
}

// Register creates a new session for an adapter at the given URL and
// assigns it an ID.
func (m *SessionManager) Register(url, siteKey string) *session.Session {
	s := &session.Session{
		ID:      uuid.NewString(),
		URL:     url,
		SiteKey: siteKey,
		Enabled: true,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.queues[s.ID] = make(chan session.Command, commandQueueDepth)
	c := *s
	m.mu.Unlock()

	log.Printf("session registered: %s (%s)", c.ID, url)
	for _, cb := range m.onRegistered {
		cb(&c)
	}
	return &c
}

// Remove ends a session: its state entry and command queue are
// deleted together. Removing an unknown session is a no-op.
func (m *SessionManager) Remove(sessionID string) {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		if q, ok := m.queues[sessionID]; ok {
			close(q)
			delete(m.queues, sessionID)
		}
		m.store.Remove(sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	log.Printf("session removed: %s", sessionID)
	for _, cb := range m.onRemoved {
		cb(sessionID)
	}
}

// ReportState records a new PlayerState for the session, timestamped
// now. Reports from unknown sessions are ignored.
func (m *SessionManager) ReportState(sessionID string, st session.PlayerState) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	var c session.Session
	if ok {
		m.store.Upsert(sessionID, st, time.Now())
		c = *s
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	for _, cb := range m.onStateReport {
		cb(&c, st)
	}
}

// SetForeground marks the session as the user's active tab. At most
// one session is foreground at a time.
func (m *SessionManager) SetForeground(sessionID string, foreground bool) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	var c session.Session
	if ok {
		if foreground {
			for _, other := range m.sessions {
				other.Foreground = false
			}
		}
		s.Foreground = foreground
		c = *s
	}
	m.mu.Unlock()
	if !ok || !foreground {
		return
	}
	for _, cb := range m.onForegroundChange {
		cb(&c)
	}
}

// SetEnabled toggles whether the session participates in routing and
// notifications.
func (m *SessionManager) SetEnabled(sessionID string, enabled bool) {
	m.mu.Lock()
	if s, ok := m.sessions[sessionID]; ok {
		s.Enabled = enabled
	}
	m.mu.Unlock()
}

// Get returns a copy of the session with the given ID, if it exists.
func (m *SessionManager) Get(sessionID string) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	c := *s
	return &c, true
}

// Sessions returns a snapshot of all live sessions.
func (m *SessionManager) Sessions() []*session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		c := *s
		out = append(out, &c)
	}
	return out
}

// ActiveSessions returns a snapshot of the enabled sessions, the set
// commands are routed over.
func (m *SessionManager) ActiveSessions() []*session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*session.Session
	for _, s := range m.sessions {
		if s.Enabled {
			c := *s
			out = append(out, &c)
		}
	}
	return out
}

// Dispatch queues cmd for delivery to the session. If the session is
// gone or its queue is full the command is dropped.
func (m *SessionManager) Dispatch(sessionID string, cmd session.Command) {
	// send under the lock so Remove can't close the queue mid-send
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[sessionID]
	if !ok {
		return
	}
	select {
	case q <- cmd:
	default:
		log.Printf("dropping command %s for session %s: queue full", cmd.Name, sessionID)
	}
}

// NextCommand blocks until a command is queued for the session, the
// session ends, or ctx is done. The second return is false when no
// command will ever arrive.
func (m *SessionManager) NextCommand(ctx context.Context, sessionID string) (session.Command, bool) {
	m.mu.Lock()
	q, ok := m.queues[sessionID]
	m.mu.Unlock()
	if !ok {
		return session.Command{}, false
	}
	select {
	case cmd, ok := <-q:
		return cmd, ok
	case <-ctx.Done():
		return session.Command{}, false
	}
}
