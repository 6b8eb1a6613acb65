package session

import (
	"testing"
	"time"
)

func TestStateStore_UpsertGetRemove(t *testing.T) {
	store := NewStateStore()

	if _, ok := store.Get("a"); ok {
		t.Error("expected no state for unknown session")
	}

	now := time.Now()
	store.Upsert("a", PlayerState{SiteName: "Bandcamp", Song: "One", IsPlaying: true}, now)
	st, ok := store.Get("a")
	if !ok || st.Song != "One" || !st.IsPlaying {
		t.Errorf("unexpected state after upsert: %+v ok=%v", st, ok)
	}
	if got := store.ReportTime("a"); !got.Equal(now) {
		t.Errorf("expected report time %v, got %v", now, got)
	}

	// replace, not merge
	store.Upsert("a", PlayerState{SiteName: "Bandcamp", Artist: "X"}, now.Add(time.Second))
	st, _ = store.Get("a")
	if st.Song != "" || st.Artist != "X" {
		t.Errorf("upsert should replace prior state entirely, got %+v", st)
	}

	store.Remove("a")
	if _, ok := store.Get("a"); ok {
		t.Error("expected state gone after remove")
	}
	if !store.ReportTime("a").IsZero() {
		t.Error("expected zero report time after remove")
	}
}

func TestStateStore_Snapshot(t *testing.T) {
	store := NewStateStore()
	now := time.Now()
	store.Upsert("a", PlayerState{SiteName: "Deezer"}, now)
	store.Upsert("b", PlayerState{SiteName: "Pandora"}, now)

	snap := store.Snapshot([]string{"a", "c"})
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snap))
	}
	if snap["a"].SiteName != "Deezer" {
		t.Errorf("wrong entry in snapshot: %+v", snap)
	}
}
