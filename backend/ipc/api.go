package ipc

import "github.com/berrberr/gshotkeys/backend/session"

const (
	PingPath = "/ping"

	// session lifecycle + reporting (used by site adapters)
	HelloPath        = "/session/hello"
	StatePath        = "/session/{id}/state"
	ForegroundPath   = "/session/{id}/foreground"
	ByePath          = "/session/{id}/bye"
	NextCommandPath  = "/session/{id}/commands"
	NotifyPath       = "/session/{id}/notify"
	SetEnabledPath   = "/session/{id}/enabled"

	// control surface (popup UI, CLI)
	TabsPath        = "/tabs"
	CommandPath     = "/command"
	SitesPath       = "/sites"
	SiteStatePath   = "/sites/{key}"
	MatchSitePath   = "/sites/match" // ?url=<url>
	CommandListPath = "/commands/list"
)

type Response struct {
	Error string `json:"error"`
}

type HelloRequest struct {
	URL string `json:"url"`
}

type HelloResponse struct {
	SessionID string `json:"sessionId"`
	SiteKey   string `json:"siteKey"`
}

type ForegroundRequest struct {
	Foreground bool `json:"foreground"`
}

type EnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type CommandRequest struct {
	Command   string `json:"command"`
	Args      []any  `json:"args,omitempty"`
	TabTarget string `json:"tab_target,omitempty"`
}

// TabsResponse partitions the live sessions by enablement.
type TabsResponse struct {
	Enabled  []session.Session `json:"enabled"`
	Disabled []session.Session `json:"disabled"`
}

type SiteStateRequest struct {
	Enabled       bool `json:"enabled"`
	Notifications bool `json:"notifications"`
}

type MatchSiteResponse struct {
	Matched bool   `json:"matched"`
	SiteKey string `json:"siteKey,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}
