package session

import (
	"sync"
	"time"
)

type stateEntry struct {
	state      PlayerState
	reportedAt time.Time
}

// StateStore holds the latest reported PlayerState per session,
// along with the time the report was received. Last write wins;
// no history is kept. Entries are removed only when the owning
// session ends, never by age.
type StateStore struct {
	mu      sync.RWMutex
	entries map[string]stateEntry
}

func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[string]stateEntry)}
}

// Upsert replaces (not merges) the stored state for the session and
// records ts as its last report time.
func (s *StateStore) Upsert(sessionID string, state PlayerState, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = stateEntry{state: state, reportedAt: ts}
}

// Remove deletes both the state and its report time.
func (s *StateStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}

func (s *StateStore) Get(sessionID string) (PlayerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return e.state, ok
}

// ReportTime returns the time of the session's last report, or the
// zero time if it has never reported.
func (s *StateStore) ReportTime(sessionID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[sessionID].reportedAt
}

// Snapshot returns the stored states for the given sessions. Sessions
// with no report yet are omitted.
func (s *StateStore) Snapshot(sessionIDs []string) map[string]PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]PlayerState, len(sessionIDs))
	for _, id := range sessionIDs {
		if e, ok := s.entries[id]; ok {
			out[id] = e.state
		}
	}
	return out
}
