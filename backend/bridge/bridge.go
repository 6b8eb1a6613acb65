package bridge

import (
	"log"
	"sync"

	"github.com/berrberr/gshotkeys/backend/session"
)

type connState int

const (
	stateClosed connState = iota
	stateOpening
	stateOpen
)

// Bridge owns the single control surface connection. It is opened on
// the first Acquire and closed when every acquirer has released it.
// While open, PublishUpdate/PublishRemove forward state to the surface
// and inbound surface commands are translated into router commands.
type Bridge struct {
	mu        sync.Mutex
	state     connState
	refs      int
	transport Transport

	newTransport func() (Transport, error)
	onCommand    func(session.Command)
}

// New creates a closed bridge. newTransport is invoked lazily on first
// demand; onCommand receives translated inbound commands. Inbound
// commands carry no target session; the surface has no notion of
// sessions.
func New(newTransport func() (Transport, error), onCommand func(session.Command)) *Bridge {
	return &Bridge{newTransport: newTransport, onCommand: onCommand}
}

// Active reports whether the connection is open.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateOpen
}

// Refs returns the current reference count.
func (b *Bridge) Refs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs
}

// Acquire registers a session's demand for the bridge, opening the
// connection if this is the first. It reports whether a reference was
// taken: an open failure leaves the bridge closed with a zero refcount
// and returns false, and the caller must not Release for it. Routing
// is unaffected by the bridge's absence.
func (b *Bridge) Acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateClosed {
		b.state = stateOpening
		t, err := b.newTransport()
		if err != nil {
			log.Printf("bridge transport unavailable: %v", err)
			b.state = stateClosed
			return false
		}
		if err := t.Start(b.handleInbound); err != nil {
			log.Printf("bridge transport failed to start: %v", err)
			t.Close()
			b.state = stateClosed
			return false
		}
		b.transport = t
		b.state = stateOpen
		log.Println("bridge connection opened")
	}
	if b.state != stateOpen {
		return false
	}
	b.refs++
	b.send(Message{Command: CmdAddPlayer})
	return true
}

// Release drops one reference. When the count reaches zero the bridge
// sends a terminal quit message, detaches the inbound handler, and
// closes the transport, in that order, with no other bridge operation
// interleaved.
func (b *Bridge) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateOpen || b.refs == 0 {
		return
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	b.send(Message{Command: CmdQuit})
	t := b.transport
	b.transport = nil // detaches handleInbound delivery
	b.state = stateClosed
	if err := t.Close(); err != nil {
		log.Printf("error closing bridge transport: %v", err)
	}
	log.Println("bridge connection closed")
}

// Shutdown force-closes the connection at process teardown, regardless
// of outstanding references. Same terminal sequence as the final
// Release.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateOpen {
		return
	}
	b.refs = 0
	b.send(Message{Command: CmdQuit})
	t := b.transport
	b.transport = nil
	b.state = stateClosed
	if err := t.Close(); err != nil {
		log.Printf("error closing bridge transport: %v", err)
	}
}

// PublishUpdate reports the canonical session's state to the surface.
// No-op while closed.
func (b *Bridge) PublishUpdate(u PlayerUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateOpen {
		return
	}
	b.send(Message{Command: CmdUpdateState, Update: &u})
}

// PublishRemove reports that no usable session exists.
func (b *Bridge) PublishRemove() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateOpen {
		return
	}
	b.send(Message{Command: CmdRemovePlayer})
}

// caller must hold b.mu
func (b *Bridge) send(msg Message) {
	if err := b.transport.Send(msg); err != nil {
		log.Printf("error sending bridge message %s: %v", msg.Command, err)
	}
}

func (b *Bridge) handleInbound(msg Message) {
	b.mu.Lock()
	detached := b.transport == nil
	b.mu.Unlock()
	if detached {
		return
	}

	var cmd session.Command
	switch msg.Command {
	case InPlay, InPause, InPlayPause:
		cmd.Name = session.CmdPlayPause
	case InStop:
		cmd.Name = session.CmdStop
	case InNext:
		cmd.Name = session.CmdPlayNext
	case InPrevious:
		cmd.Name = session.CmdPlayPrev
	case InSeek:
		cmd.Name = session.CmdSeek
		if msg.Value != nil {
			cmd.Args = []any{*msg.Value}
		}
	case InVolume:
		cmd.Name = session.CmdVolume
		if msg.Value != nil {
			cmd.Args = []any{*msg.Value}
		}
	default:
		log.Printf("cannot handle bridge command: %s", msg.Command)
		return
	}
	b.onCommand(cmd)
}
