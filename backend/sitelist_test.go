package backend

import "testing"

func TestSitelist_Match(t *testing.T) {
	sl := NewSitelist(DefaultConfig("v0"))

	cases := []struct {
		url     string
		wantKey string
		match   bool
	}{
		{"http://www.bandcamp.com/some/track", "bandcamp", true},
		{"https://bandcamp.com", "bandcamp", true},
		{"https://artist.bandcamp.com/album/x", "bandcamp", true},
		{"http://www.last.fm/listen", "last", true},
		{"http://www.example.com", "", false},
		{"not a url", "", false},
	}
	for _, c := range cases {
		s, ok := sl.Match(c.url)
		if ok != c.match {
			t.Errorf("Match(%q) matched=%v, want %v", c.url, ok, c.match)
			continue
		}
		if ok && s.Key != c.wantKey {
			t.Errorf("Match(%q) = %s, want %s", c.url, s.Key, c.wantKey)
		}
	}
}

func TestSitelist_EnabledAndNotificationFlags(t *testing.T) {
	cfg := DefaultConfig("v0")
	sl := NewSitelist(cfg)

	url := "http://www.deezer.com/playlist/1"
	if !sl.CheckEnabled(url) {
		t.Fatal("deezer should be enabled by default")
	}
	if sl.ShowNotifications(url) {
		t.Fatal("notifications should be off by default")
	}

	if !sl.SetSiteState("deezer", SiteConfig{Enabled: false, Notifications: true}) {
		t.Fatal("SetSiteState failed for known site")
	}
	if sl.CheckEnabled(url) {
		t.Error("deezer should now be disabled")
	}
	if !sl.ShowNotifications(url) {
		t.Error("deezer notifications should now be on")
	}
	if cfg.Sites["deezer"].Enabled {
		t.Error("site state should be persisted to config")
	}

	if sl.SetSiteState("nosuchsite", SiteConfig{}) {
		t.Error("SetSiteState should fail for unknown site")
	}
}

func TestSitelist_YouTubeDisabledByDefault(t *testing.T) {
	sl := NewSitelist(DefaultConfig("v0"))
	if sl.CheckEnabled("http://www.youtube.com/watch?v=x") {
		t.Error("youtube is off by default")
	}
	if _, ok := sl.Match("http://www.youtube.com/watch?v=x"); !ok {
		t.Error("youtube should still match as a known site")
	}
}

func TestSitelist_LoadSettingsOverlay(t *testing.T) {
	cfg := DefaultConfig("v0")
	cfg.Sites["pandora"] = SiteConfig{Enabled: false, Notifications: true}
	sl := NewSitelist(cfg)

	if sl.CheckEnabled("http://www.pandora.com") {
		t.Error("config overlay should disable pandora")
	}
	if !sl.ShowNotifications("http://www.pandora.com") {
		t.Error("config overlay should enable pandora notifications")
	}
}
