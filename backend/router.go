package backend

import (
	"log"
	"time"

	"github.com/berrberr/gshotkeys/backend/session"
)

// Dispatcher delivers a command to a single session, best-effort.
// Delivery to a session that no longer exists is silently dropped.
type Dispatcher interface {
	Dispatch(sessionID string, cmd session.Command)
}

// CommandRouter decides which sessions receive a command.
//
// Global commands (mute, stop, state queries) always go to every
// session. Transport commands go to every session unless single player
// mode is on, in which case they go to all currently playing sessions,
// or, when nothing is playing, to the single best session.
type CommandRouter struct {
	store      *session.StateStore
	dispatcher Dispatcher

	// reads the live single player mode setting
	singlePlayerMode func() bool
	recencyWindow    time.Duration
}

func NewCommandRouter(store *session.StateStore, d Dispatcher, singlePlayerMode func() bool, recencyWindow time.Duration) *CommandRouter {
	if recencyWindow <= 0 {
		recencyWindow = session.DefaultRecencyWindow
	}
	return &CommandRouter{
		store:            store,
		dispatcher:       d,
		singlePlayerMode: singlePlayerMode,
		recencyWindow:    recencyWindow,
	}
}

// Route dispatches cmd to the appropriate subset of sessions.
// It never blocks on delivery and never fails.
func (r *CommandRouter) Route(cmd session.Command, sessions []*session.Session) {
	if cmd.TargetSessionID != "" {
		log.Printf("single session request. Sent: %s To: %s", cmd.Name, cmd.TargetSessionID)
		r.dispatcher.Dispatch(cmd.TargetSessionID, cmd)
		return
	}

	if session.IsGlobalCommand(cmd.Name) {
		r.sendAll(cmd, sessions)
		return
	}

	if !r.singlePlayerMode() {
		r.sendAll(cmd, sessions)
		return
	}

	if len(sessions) == 0 {
		return
	}
	// If any session is playing it is ambiguous which one the user
	// means, so send to all of them rather than silently skipping one.
	// Otherwise infer the intended session from recency/foreground.
	if playing := session.FilterPlaying(sessions, r.store); len(playing) > 0 {
		r.sendAll(cmd, playing)
	} else if best := session.SelectBest(sessions, r.store, r.recencyWindow); best != nil {
		r.sendAll(cmd, []*session.Session{best})
	}
}

func (r *CommandRouter) sendAll(cmd session.Command, sessions []*session.Session) {
	for _, s := range sessions {
		r.dispatcher.Dispatch(s.ID, cmd)
		log.Printf("Sent: %s To: %s", cmd.Name, s.URL)
	}
}
