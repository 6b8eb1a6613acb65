package backend

import (
	"log"
	"regexp"
	"sort"
	"sync"
)

// Site is one supported music site.
type Site struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Enabled       bool   `json:"enabled"`
	Notifications bool   `json:"notifications"`

	urlRegex *regexp.Regexp
}

type siteDef struct {
	key, name, url string
	enabled        bool
}

var defaultSites = []siteDef{
	{"8tracks", "8tracks", "http://www.8tracks.com", true},
	{"bandcamp", "Bandcamp", "http://www.bandcamp.com", true},
	{"deezer", "Deezer", "http://www.deezer.com", true},
	{"di", "Di.fm", "http://www.di.fm", true},
	{"hypem", "Hypemachine", "http://www.hypem.com", true},
	{"iheart", "iHeartRadio", "http://www.iheart.com", true},
	{"jango", "Jango", "http://www.jango.com", true},
	{"last", "LastFm", "http://www.last.fm", true},
	{"mixcloud", "Mixcloud", "http://www.mixcloud.com", true},
	{"pandora", "Pandora", "http://www.pandora.com", true},
	{"plex", "Plex", "http://www.plex.tv", true},
	{"radioparadise", "RadioParadise", "http://www.radioparadise.com", true},
	{"slacker", "Slacker", "http://www.slacker.com", true},
	{"soundcloud", "Soundcloud", "http://www.soundcloud.com", true},
	{"spotify", "Spotify Web Player", "http://www.spotify.com", true},
	{"stitcher", "Stitcher", "http://www.stitcher.com", true},
	{"tunein", "TuneIn", "http://www.tunein.com", true},
	{"vk", "Vkontakte", "http://www.vk.com", true},
	{"youtube", "YouTube", "http://www.youtube.com", false},
}

// Sitelist is the catalog of supported sites with their enablement
// and notification flags. Flags are overlaid from, and persisted
// back to, the app config.
type Sitelist struct {
	mu    sync.RWMutex
	sites map[string]*Site
	cfg   *Config
}

func NewSitelist(cfg *Config) *Sitelist {
	sl := &Sitelist{sites: make(map[string]*Site), cfg: cfg}
	for _, d := range defaultSites {
		sl.sites[d.key] = &Site{
			Key:           d.key,
			Name:          d.name,
			URL:           d.url,
			Enabled:       d.enabled,
			Notifications: false,
			urlRegex:      siteURLRegex(d.key),
		}
	}
	sl.LoadSettings()
	return sl
}

// siteURLRegex matches the site key in a URL's domain part.
func siteURLRegex(key string) *regexp.Regexp {
	return regexp.MustCompile(`^(http|https)*(:\/\/)*(.*\.)*(` +
		regexp.QuoteMeta(key) + `|www.` + regexp.QuoteMeta(key) + `)+\.`)
}

// LoadSettings re-applies the config's site flags over the defaults.
func (sl *Sitelist) LoadSettings() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	for key, sc := range sl.cfg.Sites {
		if s, ok := sl.sites[key]; ok {
			s.Enabled = sc.Enabled
			s.Notifications = sc.Notifications
		}
	}
}

// Sites returns the catalog sorted by key.
func (sl *Sitelist) Sites() []*Site {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	out := make([]*Site, 0, len(sl.sites))
	for _, s := range sl.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Match returns the site whose domain pattern matches url.
func (sl *Sitelist) Match(url string) (*Site, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	for _, s := range sl.sites {
		if s.urlRegex.MatchString(url) {
			return s, true
		}
	}
	return nil, false
}

// CheckEnabled reports whether url belongs to an enabled music site.
func (sl *Sitelist) CheckEnabled(url string) bool {
	s, ok := sl.Match(url)
	return ok && s.Enabled
}

// ShowNotifications reports whether track change notifications are on
// for the site hosting url.
func (sl *Sitelist) ShowNotifications(url string) bool {
	s, ok := sl.Match(url)
	return ok && s.Notifications
}

// SetSiteState updates a site's flags and persists them to the config.
func (sl *Sitelist) SetSiteState(key string, state SiteConfig) bool {
	sl.mu.Lock()
	s, ok := sl.sites[key]
	if ok {
		s.Enabled = state.Enabled
		s.Notifications = state.Notifications
		sl.cfg.Sites[key] = state
	}
	sl.mu.Unlock()
	if ok {
		log.Printf("updated site settings: %s enabled=%v notifications=%v",
			key, state.Enabled, state.Notifications)
	}
	return ok
}
