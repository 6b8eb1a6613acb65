// Package bridge mirrors the canonical session's player state to an
// external media control surface and feeds the surface's commands back
// into the coordinator. The connection is process-wide, opened lazily,
// and reference-counted by the sessions using it.
package bridge

// Outbound message commands.
const (
	CmdAddPlayer    = "add_player"
	CmdRemovePlayer = "remove_player"
	CmdUpdateState  = "update_state"
	CmdQuit         = "quit"
)

// Inbound message commands from the control surface.
const (
	InPlay      = "play"
	InPause     = "pause"
	InPlayPause = "playpause"
	InStop      = "stop"
	InNext      = "next"
	InPrevious  = "previous"
	InSeek      = "seek"
	InVolume    = "volume"
)

// Metadata describes the canonical session's current track in the
// control surface's schema.
type Metadata struct {
	TrackID string   `json:"mpris:trackid,omitempty"`
	Title   string   `json:"xesam:title,omitempty"`
	Artist  []string `json:"xesam:artist,omitempty"`
	Album   string   `json:"xesam:album,omitempty"`
	ArtURL  string   `json:"mpris:artUrl,omitempty"`
	// track length in microseconds
	Length *int64 `json:"mpris:length,omitempty"`
}

// PlayerUpdate is the payload of an update_state message.
type PlayerUpdate struct {
	CanGoNext      bool     `json:"CanGoNext"`
	CanGoPrevious  bool     `json:"CanGoPrevious"`
	PlaybackStatus string   `json:"PlaybackStatus"` // "Playing" or "Paused"
	CanPlay        bool     `json:"CanPlay"`
	CanPause       bool     `json:"CanPause"`
	CanSeek        bool     `json:"CanSeek"`
	Metadata       Metadata `json:"Metadata"`
	// position in microseconds, if known
	Position *int64 `json:"Position,omitempty"`
	// volume in [0,1], if known
	Volume *float64 `json:"Volume,omitempty"`
}

// Message is one frame in either direction. Update is set only for
// update_state; Value carries the argument of inbound seek/volume.
type Message struct {
	Command string        `json:"command"`
	Update  *PlayerUpdate `json:"update,omitempty"`
	Value   *float64      `json:"value,omitempty"`
}

const (
	PlaybackStatusPlaying = "Playing"
	PlaybackStatusPaused  = "Paused"
)
