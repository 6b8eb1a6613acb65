package backend

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/berrberr/gshotkeys/backend/bridge"
	"github.com/berrberr/gshotkeys/backend/session"
)

// BridgeSync keeps the external bridge in step with session churn.
// Every state change event recomputes which single session the bridge
// should represent and publishes it; session arrival and departure
// acquire and release the bridge connection. Only sessions whose
// Acquire actually took a reference release one on removal, so a
// session registered while the transport was unavailable cannot close
// the bridge out from under one that holds it.
type BridgeSync struct {
	sm     *SessionManager
	bridge *bridge.Bridge
	window time.Duration

	mu      sync.Mutex
	holders map[string]struct{} // session IDs holding a bridge ref
}

func NewBridgeSync(sm *SessionManager, b *bridge.Bridge, window time.Duration) *BridgeSync {
	if window <= 0 {
		window = session.DefaultRecencyWindow
	}
	bs := &BridgeSync{sm: sm, bridge: b, window: window, holders: make(map[string]struct{})}

	sm.OnRegistered(func(s *session.Session) {
		if b.Acquire() {
			bs.mu.Lock()
			bs.holders[s.ID] = struct{}{}
			bs.mu.Unlock()
		}
		bs.Recompute()
	})
	sm.OnStateReport(func(*session.Session, session.PlayerState) {
		bs.Recompute()
	})
	sm.OnForegroundChange(func(*session.Session) {
		bs.Recompute()
	})
	sm.OnRemoved(func(sessionID string) {
		bs.Recompute()
		bs.mu.Lock()
		_, held := bs.holders[sessionID]
		delete(bs.holders, sessionID)
		bs.mu.Unlock()
		if held {
			b.Release()
		}
	})
	return bs
}

// Recompute publishes the state of the session a routed command would
// currently affect: the best playing session, or the overall best when
// nothing is playing. With no usable session the bridge reports no
// active player.
func (bs *BridgeSync) Recompute() {
	if !bs.bridge.Active() {
		return
	}
	sessions := bs.sm.ActiveSessions()
	if len(sessions) == 0 {
		bs.bridge.PublishRemove()
		return
	}

	store := bs.sm.Store()
	var best *session.Session
	if playing := session.FilterPlaying(sessions, store); len(playing) > 0 {
		best = session.SelectBest(playing, store, bs.window)
	} else {
		best = session.SelectBest(sessions, store, bs.window)
	}

	// a session can exist before its site finishes loading; leave the
	// bridge untouched until it reports
	st, ok := store.Get(best.ID)
	if !ok {
		return
	}
	bs.bridge.PublishUpdate(playerUpdateFor(best, st))
}

func playerUpdateFor(s *session.Session, st session.PlayerState) bridge.PlayerUpdate {
	status := bridge.PlaybackStatusPaused
	if st.IsPlaying {
		status = bridge.PlaybackStatusPlaying
	}
	md := bridge.Metadata{
		Title:  st.Song,
		Album:  st.Album,
		ArtURL: st.ArtURL,
	}
	if st.Song != "" {
		md.TrackID = s.ID
	}
	if a := strings.TrimSpace(st.Artist); a != "" {
		md.Artist = []string{a}
	}
	if d, ok := parseClock(st.TotalTime); ok {
		us := d.Microseconds()
		md.Length = &us
	}

	u := bridge.PlayerUpdate{
		CanGoNext:      st.CanPlayNext,
		CanGoPrevious:  st.CanPlayPrev,
		PlaybackStatus: status,
		CanPlay:        st.CanPlayPause,
		CanPause:       st.CanPlayPause,
		CanSeek:        st.CanSeek,
		Metadata:       md,
		Volume:         st.Volume,
	}
	if d, ok := parseClock(st.CurrentTime); ok {
		us := d.Microseconds()
		u.Position = &us
	}
	return u
}

// parseClock parses a player clock display value: plain seconds
// ("83"), m:ss ("1:23"), or h:mm:ss ("1:02:03").
func parseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, true
}
