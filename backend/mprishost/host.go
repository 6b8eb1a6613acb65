// Package mprishost serves the org.mpris.MediaPlayer2 interfaces for
// the coordinator's canonical session. It is the production transport
// for the bridge: outbound bridge messages become MPRIS property
// updates, and MPRIS method calls from desktop media controls become
// inbound bridge messages.
package mprishost

import (
	"encoding/base32"
	"errors"
	"sync"

	"github.com/berrberr/gshotkeys/backend/bridge"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

const (
	dbusTrackIDPrefix = "/Gshotkeys/Track/"
	noTrackObjectPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"
)

var (
	_ types.OrgMprisMediaPlayer2Adapter       = (*Host)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter = (*Host)(nil)
)

var errNotSupported = errors.New("not supported")

type Host struct {
	mu        sync.Mutex
	update    *bridge.PlayerUpdate // nil when no player is active
	onMessage func(bridge.Message)
	stopped   bool

	playerName string
	s          *server.Server
	evt        *events.EventHandler
}

func New(playerName string) *Host {
	h := &Host{playerName: playerName}
	h.s = server.NewServer(playerName, h, h)
	h.evt = events.NewEventHandler(h.s)
	return h
}

// Start verifies the D-Bus session bus is reachable, then begins
// serving MPRIS. Inbound control calls are delivered to onMessage.
func (h *Host) Start(onMessage func(bridge.Message)) error {
	// fail fast if no session bus; go-mpris-server opens its own
	// connection from inside Listen
	if _, err := dbus.SessionBus(); err != nil {
		return err
	}

	h.mu.Lock()
	h.onMessage = onMessage
	h.mu.Unlock()

	go func() {
		if err := h.s.Listen(); err != nil {
			// surface went away; sends become no-ops
			h.mu.Lock()
			h.stopped = true
			h.mu.Unlock()
		}
	}()
	return nil
}

// Send applies an outbound bridge message to the MPRIS surface.
func (h *Host) Send(msg bridge.Message) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return errors.New("mpris host stopped")
	}
	prev := h.update
	switch msg.Command {
	case bridge.CmdAddPlayer:
		h.mu.Unlock()
		return nil
	case bridge.CmdUpdateState:
		h.update = msg.Update
	case bridge.CmdRemovePlayer:
		h.update = nil
	case bridge.CmdQuit:
		h.stopped = true
		h.mu.Unlock()
		h.s.Stop()
		return nil
	default:
		h.mu.Unlock()
		return errors.New("unknown outbound command: " + msg.Command)
	}
	cur := h.update
	h.mu.Unlock()

	h.emitChanges(prev, cur)
	return nil
}

func (h *Host) Close() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()
	h.s.Stop()
	return nil
}

func (h *Host) emitChanges(prev, cur *bridge.PlayerUpdate) {
	if prev == nil && cur == nil {
		return
	}
	presenceChanged := (prev == nil) != (cur == nil)
	metadataChanged := presenceChanged || prev.Metadata.TrackID != cur.Metadata.TrackID ||
		prev.Metadata.Title != cur.Metadata.Title
	if metadataChanged {
		h.evt.Player.OnTitle()
	}
	if presenceChanged || (cur != nil && prev.PlaybackStatus != cur.PlaybackStatus) {
		h.evt.Player.OnPlayPause()
	}
	if prev != nil && cur != nil &&
		prev.Volume != nil && cur.Volume != nil && *prev.Volume != *cur.Volume {
		h.evt.Player.OnVolume()
	}
}

func (h *Host) emit(msg bridge.Message) {
	h.mu.Lock()
	cb := h.onMessage
	h.mu.Unlock()
	if cb != nil {
		cb(msg)
	}
}

func (h *Host) currentUpdate() *bridge.PlayerUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.update
}

// OrgMprisMediaPlayer2Adapter implementation

func (h *Host) Identity() (string, error) {
	return h.playerName, nil
}

func (h *Host) CanQuit() (bool, error) {
	return false, nil
}

func (h *Host) Quit() error {
	return errNotSupported
}

func (h *Host) CanRaise() (bool, error) {
	return false, nil
}

func (h *Host) Raise() error {
	return errNotSupported
}

func (h *Host) HasTrackList() (bool, error) {
	return false, nil
}

func (h *Host) SupportedUriSchemes() ([]string, error) {
	return nil, nil
}

func (h *Host) SupportedMimeTypes() ([]string, error) {
	return nil, nil
}

// OrgMprisMediaPlayer2PlayerAdapter implementation

func (h *Host) Next() error {
	h.emit(bridge.Message{Command: bridge.InNext})
	return nil
}

func (h *Host) Previous() error {
	h.emit(bridge.Message{Command: bridge.InPrevious})
	return nil
}

func (h *Host) Pause() error {
	h.emit(bridge.Message{Command: bridge.InPause})
	return nil
}

func (h *Host) PlayPause() error {
	h.emit(bridge.Message{Command: bridge.InPlayPause})
	return nil
}

func (h *Host) Stop() error {
	h.emit(bridge.Message{Command: bridge.InStop})
	return nil
}

func (h *Host) Play() error {
	h.emit(bridge.Message{Command: bridge.InPlay})
	return nil
}

func (h *Host) Seek(offset types.Microseconds) error {
	secs := microsecondsToSeconds(offset)
	h.emit(bridge.Message{Command: bridge.InSeek, Value: &secs})
	return nil
}

func (h *Host) SetPosition(trackId string, position types.Microseconds) error {
	secs := microsecondsToSeconds(position)
	h.emit(bridge.Message{Command: bridge.InSeek, Value: &secs})
	return nil
}

func (h *Host) OpenUri(uri string) error {
	return errNotSupported
}

func (h *Host) PlaybackStatus() (types.PlaybackStatus, error) {
	u := h.currentUpdate()
	if u == nil {
		return types.PlaybackStatusStopped, nil
	}
	if u.PlaybackStatus == bridge.PlaybackStatusPlaying {
		return types.PlaybackStatusPlaying, nil
	}
	return types.PlaybackStatusPaused, nil
}

func (h *Host) Rate() (float64, error) {
	return 1, nil
}

func (h *Host) SetRate(float64) error {
	return errNotSupported
}

func (h *Host) Metadata() (types.Metadata, error) {
	u := h.currentUpdate()
	if u == nil {
		return types.Metadata{TrackId: dbus.ObjectPath(noTrackObjectPath)}, nil
	}
	m := u.Metadata
	trackObjPath := noTrackObjectPath
	if m.TrackID != "" {
		trackObjPath = dbusTrackIDPrefix + encodeTrackId(m.TrackID)
	}
	md := types.Metadata{
		TrackId: dbus.ObjectPath(trackObjPath),
		Title:   m.Title,
		Album:   m.Album,
		Artist:  m.Artist,
		ArtUrl:  m.ArtURL,
	}
	if m.Length != nil {
		md.Length = types.Microseconds(*m.Length)
	}
	return md, nil
}

func (h *Host) Volume() (float64, error) {
	if u := h.currentUpdate(); u != nil && u.Volume != nil {
		return *u.Volume, nil
	}
	return 1, nil
}

func (h *Host) SetVolume(v float64) error {
	h.emit(bridge.Message{Command: bridge.InVolume, Value: &v})
	return nil
}

func (h *Host) Position() (int64, error) {
	if u := h.currentUpdate(); u != nil && u.Position != nil {
		return *u.Position, nil
	}
	return 0, nil
}

func (h *Host) MinimumRate() (float64, error) {
	return 1, nil
}

func (h *Host) MaximumRate() (float64, error) {
	return 1, nil
}

func (h *Host) CanGoNext() (bool, error) {
	u := h.currentUpdate()
	return u != nil && u.CanGoNext, nil
}

func (h *Host) CanGoPrevious() (bool, error) {
	u := h.currentUpdate()
	return u != nil && u.CanGoPrevious, nil
}

func (h *Host) CanPlay() (bool, error) {
	u := h.currentUpdate()
	return u != nil && u.CanPlay, nil
}

func (h *Host) CanPause() (bool, error) {
	u := h.currentUpdate()
	return u != nil && u.CanPause, nil
}

func (h *Host) CanSeek() (bool, error) {
	u := h.currentUpdate()
	return u != nil && u.CanSeek, nil
}

func (h *Host) CanControl() (bool, error) {
	return true, nil
}

func microsecondsToSeconds(m types.Microseconds) float64 {
	return float64(m) / 1_000_000
}

func encodeTrackId(id string) string {
	return base32.StdEncoding.WithPadding('0').EncodeToString([]byte(id))
}
