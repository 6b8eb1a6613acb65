package backend

import (
	"sync"
	"testing"
	"time"

	"github.com/berrberr/gshotkeys/backend/session"
)

type fakeSender struct {
	mu        sync.Mutex
	nextID    uint32
	shown     []Notification
	replaced  []uint32
	dismissed []uint32
}

func (f *fakeSender) Show(replaces uint32, n Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.shown = append(f.shown, n)
	f.replaced = append(f.replaced, replaces)
	return f.nextID, nil
}

func (f *fakeSender) Dismiss(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed = append(f.dismissed, id)
	return nil
}

func (f *fakeSender) dismissCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dismissed)
}

func TestNotificationGate_RequiresSong(t *testing.T) {
	sender := &fakeSender{}
	g := NewNotificationGate(sender, time.Minute)
	g.Notify("a", session.PlayerState{SiteName: "Deezer", Artist: "Someone"})
	g.Notify("a", session.PlayerState{Song: "   "})
	if len(sender.shown) != 0 {
		t.Errorf("expected no notifications without a song, got %d", len(sender.shown))
	}
}

func TestNotificationGate_ItemLines(t *testing.T) {
	sender := &fakeSender{}
	g := NewNotificationGate(sender, time.Minute)
	g.Notify("a", session.PlayerState{
		Song:        " Song Title ",
		Artist:      "Artist",
		CurrentTime: "1:23",
		TotalTime:   "4:56",
	})

	if len(sender.shown) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sender.shown))
	}
	n := sender.shown[0]
	if n.Title != "Song Title" {
		t.Errorf("title not trimmed song: %q", n.Title)
	}
	if len(n.Items) != 2 {
		t.Fatalf("expected artist and time items, got %v", n.Items)
	}
	if n.Items[0].Title != "Artist" || n.Items[0].Message != "" {
		t.Errorf("bad artist/album item: %+v", n.Items[0])
	}
	if n.Items[1].Title != "1:23" || n.Items[1].Message != "4:56" {
		t.Errorf("bad time item: %+v", n.Items[1])
	}

	// no artist/album and no times: song line only
	g.Notify("b", session.PlayerState{Song: "Other"})
	if items := sender.shown[1].Items; len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
}

func TestNotificationGate_Supersession(t *testing.T) {
	sender := &fakeSender{}
	g := NewNotificationGate(sender, time.Minute)

	g.Notify("a", session.PlayerState{Song: "One"})
	g.Notify("a", session.PlayerState{Song: "Two"})

	if len(sender.shown) != 2 {
		t.Fatalf("expected 2 shows, got %d", len(sender.shown))
	}
	// the second notification replaces the first rather than queuing
	if sender.replaced[1] != 1 {
		t.Errorf("second show should replace id 1, got %d", sender.replaced[1])
	}
	if got := g.PendingCount(); got != 1 {
		t.Errorf("expected exactly one live record, got %d", got)
	}
	// the superseded timer was cancelled, so no dismissal fires for it
	if sender.dismissCount() != 0 {
		t.Errorf("superseded notification should not be dismissed by timer")
	}
}

func TestNotificationGate_AutoDismiss(t *testing.T) {
	sender := &fakeSender{}
	g := NewNotificationGate(sender, 10*time.Millisecond)

	g.Notify("a", session.PlayerState{Song: "One"})
	deadline := time.Now().Add(time.Second)
	for g.PendingCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if g.PendingCount() != 0 {
		t.Fatal("notification record should be removed after timeout")
	}
	if sender.dismissCount() != 1 {
		t.Errorf("expected 1 dismissal, got %d", sender.dismissCount())
	}
}
