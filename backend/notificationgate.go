package backend

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/berrberr/gshotkeys/backend/session"
)

// DefaultNotificationTimeout is how long a track change notification
// stays on screen before it is auto-dismissed.
const DefaultNotificationTimeout = 5000 * time.Millisecond

type NotificationItem struct {
	Title   string
	Message string
}

type Notification struct {
	Title   string // song title
	Message string
	IconURL string
	Items   []NotificationItem
}

// NotificationSender shows and dismisses desktop notifications.
// replaces is the sender-assigned ID of a notification the new one
// supersedes, or 0.
type NotificationSender interface {
	Show(replaces uint32, n Notification) (uint32, error)
	Dismiss(id uint32) error
}

type pendingNotification struct {
	id    uint32
	timer *time.Timer
}

// NotificationGate surfaces at most one live track change notification
// per session. A new notification for the same session supersedes the
// pending one: its auto-dismiss timer is cancelled and the
// notification replaced rather than queued.
type NotificationGate struct {
	mu      sync.Mutex
	sender  NotificationSender
	timeout time.Duration
	pending map[string]*pendingNotification // keyed by session ID
}

func NewNotificationGate(sender NotificationSender, timeout time.Duration) *NotificationGate {
	if timeout <= 0 {
		timeout = DefaultNotificationTimeout
	}
	return &NotificationGate{
		sender:  sender,
		timeout: timeout,
		pending: make(map[string]*pendingNotification),
	}
}

// Notify builds and shows a notification for the session's reported
// state. States with no song title are ignored. Enablement gating
// (site and session toggles) is the caller's job.
func (g *NotificationGate) Notify(sessionID string, st session.PlayerState) {
	if strings.TrimSpace(st.Song) == "" {
		return
	}

	n := Notification{
		Title:   strings.TrimSpace(st.Song),
		IconURL: st.ArtURL,
	}
	if st.Artist != "" || st.Album != "" {
		n.Items = append(n.Items, NotificationItem{
			Title:   strings.TrimSpace(st.Artist),
			Message: strings.TrimSpace(st.Album),
		})
	}
	if st.CurrentTime != "" || st.TotalTime != "" {
		n.Items = append(n.Items, NotificationItem{
			Title:   strings.TrimSpace(st.CurrentTime),
			Message: strings.TrimSpace(st.TotalTime),
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var replaces uint32
	if prev, ok := g.pending[sessionID]; ok {
		prev.timer.Stop()
		delete(g.pending, sessionID)
		replaces = prev.id
	}

	id, err := g.sender.Show(replaces, n)
	if err != nil {
		log.Printf("error showing notification: %v", err)
		return
	}
	g.pending[sessionID] = &pendingNotification{
		id: id,
		timer: time.AfterFunc(g.timeout, func() {
			g.dismiss(sessionID, id)
		}),
	}
}

// PendingCount reports how many sessions have a live notification.
func (g *NotificationGate) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *NotificationGate) dismiss(sessionID string, id uint32) {
	g.mu.Lock()
	p, ok := g.pending[sessionID]
	if ok && p.id == id {
		delete(g.pending, sessionID)
	}
	g.mu.Unlock()
	if !ok || p.id != id {
		return // superseded in the meantime
	}
	if err := g.sender.Dismiss(id); err != nil {
		log.Printf("error dismissing notification: %v", err)
	}
}
