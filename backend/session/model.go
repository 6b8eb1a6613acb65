package session

// A Session is one live music player instance: one connected site
// adapter, corresponding to one open player tab.
type Session struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	SiteKey    string `json:"siteKey,omitempty"`
	Foreground bool   `json:"foreground"`
	Enabled    bool   `json:"enabled"`
}

// PlayerState is the latest snapshot self-reported by a session.
// Text fields may be empty and numeric fields nil, meaning "unknown".
// Only SiteName and IsPlaying are always meaningful.
type PlayerState struct {
	SiteName    string   `json:"siteName"`
	Song        string   `json:"song,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	Album       string   `json:"album,omitempty"`
	ArtURL      string   `json:"art,omitempty"`
	CurrentTime string   `json:"currentTime,omitempty"`
	TotalTime   string   `json:"totalTime,omitempty"`
	Volume      *float64 `json:"volume,omitempty"`
	IsPlaying   bool     `json:"isPlaying"`

	CanPlayPause bool `json:"canPlayPause,omitempty"`
	CanPlayNext  bool `json:"canPlayNext,omitempty"`
	CanPlayPrev  bool `json:"canPlayPrev,omitempty"`
	CanSeek      bool `json:"canSeek,omitempty"`
	CanLike      bool `json:"canLike,omitempty"`
	CanDislike   bool `json:"canDislike,omitempty"`
	HidePlayer   bool `json:"hidePlayer,omitempty"`
}

// A Command is delivered to one or more sessions. When TargetSessionID
// is set, routing policy is bypassed and the command goes to exactly
// that session.
type Command struct {
	Name            string `json:"action"`
	Args            []any  `json:"args,omitempty"`
	TargetSessionID string `json:"-"`
}

// Command names understood by site adapters.
const (
	CmdPlayPause         = "playPause"
	CmdPlayNext          = "playNext"
	CmdPlayPrev          = "playPrev"
	CmdStop              = "stop"
	CmdMute              = "mute"
	CmdSeek              = "seek"
	CmdVolume            = "volume"
	CmdLike              = "like"
	CmdDislike           = "dislike"
	CmdPlayerStateNotify = "playerStateNotify"
	CmdGetPlayerState    = "getPlayerState"
)

// IsGlobalCommand reports whether name is in the fixed set of commands
// that are always broadcast to every session regardless of the
// single player mode setting.
func IsGlobalCommand(name string) bool {
	switch name {
	case CmdMute, CmdStop, CmdPlayerStateNotify, CmdGetPlayerState:
		return true
	}
	return false
}
