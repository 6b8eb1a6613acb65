package bridge

import (
	"errors"
	"sync"
	"testing"

	"github.com/berrberr/gshotkeys/backend/session"
)

type fakeTransport struct {
	mu        sync.Mutex
	sent      []Message
	closed    bool
	onMessage func(Message)
	startErr  error
}

func (f *fakeTransport) Start(onMessage func(Message)) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.onMessage = onMessage
	return nil
}

func (f *fakeTransport) Send(msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Command
	}
	return out
}

func bridgeFixture() (*Bridge, *fakeTransport, *[]session.Command) {
	ft := &fakeTransport{}
	var routed []session.Command
	b := New(
		func() (Transport, error) { return ft, nil },
		func(cmd session.Command) { routed = append(routed, cmd) },
	)
	return b, ft, &routed
}

func TestBridge_RefcountLifecycle(t *testing.T) {
	b, ft, _ := bridgeFixture()

	if b.Active() {
		t.Fatal("bridge should start closed")
	}
	if !b.Acquire() {
		t.Fatal("acquire should report a taken reference")
	}
	if !b.Active() || b.Refs() != 1 {
		t.Fatalf("expected open with refs=1, active=%v refs=%d", b.Active(), b.Refs())
	}
	if !b.Acquire() {
		t.Fatal("acquire should report a taken reference")
	}
	if b.Refs() != 2 {
		t.Fatalf("expected refs=2, got %d", b.Refs())
	}

	b.Release()
	if !b.Active() {
		t.Fatal("bridge must stay open while refs > 0")
	}
	for _, c := range ft.commands() {
		if c == CmdQuit {
			t.Fatal("quit must not be sent while refs > 0")
		}
	}

	b.Release()
	if b.Active() {
		t.Fatal("bridge should be closed at refs=0")
	}
	quits := 0
	for _, c := range ft.commands() {
		if c == CmdQuit {
			quits++
		}
	}
	if quits != 1 {
		t.Fatalf("expected exactly one quit, got %d", quits)
	}
	if !ft.closed {
		t.Fatal("transport should be closed after quit")
	}
	// quit must be the final message
	cmds := ft.commands()
	if cmds[len(cmds)-1] != CmdQuit {
		t.Fatalf("quit should be the last message, got %v", cmds)
	}

	// extra releases are no-ops
	b.Release()
	if quits := ft.commands(); quits[len(quits)-1] != CmdQuit {
		t.Error("release after close should not send anything")
	}
}

func TestBridge_AcquireSendsAddPlayer(t *testing.T) {
	b, ft, _ := bridgeFixture()
	b.Acquire()
	b.Acquire()
	adds := 0
	for _, c := range ft.commands() {
		if c == CmdAddPlayer {
			adds++
		}
	}
	if adds != 2 {
		t.Errorf("expected add_player per acquire, got %d", adds)
	}
}

func TestBridge_TransportUnavailable(t *testing.T) {
	ft := &fakeTransport{startErr: errors.New("no session bus")}
	b := New(
		func() (Transport, error) { return ft, nil },
		func(session.Command) {},
	)
	if b.Acquire() {
		t.Error("acquire must report no reference when the transport fails to start")
	}
	if b.Active() || b.Refs() != 0 {
		t.Error("bridge must stay closed when the transport fails to start")
	}
	// publishing while closed is a no-op, not a panic
	b.PublishUpdate(PlayerUpdate{})
	b.PublishRemove()
	b.Release()
}

func TestBridge_Publish(t *testing.T) {
	b, ft, _ := bridgeFixture()
	b.Acquire()

	vol := 0.5
	b.PublishUpdate(PlayerUpdate{
		PlaybackStatus: PlaybackStatusPlaying,
		Metadata:       Metadata{Title: "Song"},
		Volume:         &vol,
	})
	b.PublishRemove()

	cmds := ft.commands()
	if cmds[len(cmds)-2] != CmdUpdateState || cmds[len(cmds)-1] != CmdRemovePlayer {
		t.Fatalf("unexpected message sequence: %v", cmds)
	}
	var update *PlayerUpdate
	for _, m := range ft.sent {
		if m.Command == CmdUpdateState {
			update = m.Update
		}
	}
	if update == nil || update.Metadata.Title != "Song" || *update.Volume != 0.5 {
		t.Errorf("update payload not forwarded: %+v", update)
	}
}

func TestBridge_InboundTranslation(t *testing.T) {
	b, ft, routed := bridgeFixture()
	b.Acquire()

	val := 42.0
	cases := []struct {
		in       Message
		wantName string
		wantArgs int
	}{
		{Message{Command: InPlay}, session.CmdPlayPause, 0},
		{Message{Command: InPause}, session.CmdPlayPause, 0},
		{Message{Command: InPlayPause}, session.CmdPlayPause, 0},
		{Message{Command: InStop}, session.CmdStop, 0},
		{Message{Command: InNext}, session.CmdPlayNext, 0},
		{Message{Command: InPrevious}, session.CmdPlayPrev, 0},
		{Message{Command: InSeek, Value: &val}, session.CmdSeek, 1},
		{Message{Command: InVolume, Value: &val}, session.CmdVolume, 1},
	}
	for _, c := range cases {
		*routed = nil
		ft.onMessage(c.in)
		if len(*routed) != 1 {
			t.Fatalf("%s: expected 1 routed command, got %d", c.in.Command, len(*routed))
		}
		got := (*routed)[0]
		if got.Name != c.wantName || len(got.Args) != c.wantArgs {
			t.Errorf("%s: routed %+v, want name=%s args=%d", c.in.Command, got, c.wantName, c.wantArgs)
		}
		if got.TargetSessionID != "" {
			t.Errorf("%s: bridge commands must route by policy, not target", c.in.Command)
		}
	}

	// unrecognized commands are dropped, not fatal
	*routed = nil
	ft.onMessage(Message{Command: "rewind-tape"})
	if len(*routed) != 0 {
		t.Errorf("unknown command should be dropped, routed %v", *routed)
	}
}

func TestBridge_ReopenAfterClose(t *testing.T) {
	ft1 := &fakeTransport{}
	ft2 := &fakeTransport{}
	transports := []*fakeTransport{ft1, ft2}
	i := 0
	b := New(
		func() (Transport, error) { t := transports[i]; i++; return t, nil },
		func(session.Command) {},
	)
	b.Acquire()
	b.Release()
	if !ft1.closed {
		t.Fatal("first transport should be closed")
	}
	b.Acquire()
	if !b.Active() || b.Refs() != 1 {
		t.Error("bridge should reopen on new demand with a fresh transport")
	}
	if ft2.onMessage == nil {
		t.Error("second transport should be started")
	}
}
