package session

import (
	"sort"
	"time"

	"github.com/berrberr/gshotkeys/sharedutil"
)

// DefaultRecencyWindow is how far behind the most recent report a
// session may be and still count as having reported "at the same
// moment". Sessions run independent update timers, so near-simultaneous
// reports land spread over tens of milliseconds.
const DefaultRecencyWindow = 200 * time.Millisecond

// SelectBest picks the single most relevant session:
// among sessions whose last report is within window of the newest
// report, prefer the foreground one, then the most recently reported.
// Sessions that never reported sort as least recent. Returns nil for
// an empty input.
func SelectBest(sessions []*Session, store *StateStore, window time.Duration) *Session {
	if len(sessions) == 0 {
		return nil
	}

	var maxT time.Time
	for _, s := range sessions {
		if t := store.ReportTime(s.ID); t.After(maxT) {
			maxT = t
		}
	}

	candidates := sharedutil.FilterSlice(sessions, func(s *Session) bool {
		return maxT.Sub(store.ReportTime(s.ID)) < window
	})

	// Composite key: foreground beats recency, recency breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Foreground != b.Foreground {
			return !a.Foreground
		}
		return store.ReportTime(a.ID).Before(store.ReportTime(b.ID))
	})
	return candidates[len(candidates)-1]
}

// FilterPlaying returns the subset of sessions whose stored state
// reports isPlaying. Sessions with no state yet are excluded.
func FilterPlaying(sessions []*Session, store *StateStore) []*Session {
	return sharedutil.FilterSlice(sessions, func(s *Session) bool {
		st, ok := store.Get(s.ID)
		return ok && st.IsPlaying
	})
}
