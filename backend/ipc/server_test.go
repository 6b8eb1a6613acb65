package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/berrberr/gshotkeys/backend/session"
)

type fakeCoordinator struct {
	registered []string
	removed    []string
	reports    map[string][]session.PlayerState
	commands   []session.Command
	notified   []string
	siteStates map[string]SiteStateRequest
	queued     map[string][]session.Command
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{
		reports:    make(map[string][]session.PlayerState),
		siteStates: make(map[string]SiteStateRequest),
		queued:     make(map[string][]session.Command),
	}
}

func (f *fakeCoordinator) RegisterSession(url string) (*session.Session, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	f.registered = append(f.registered, url)
	return &session.Session{ID: "sess-1", URL: url, SiteKey: "deezer", Enabled: true}, nil
}

func (f *fakeCoordinator) RemoveSession(id string) { f.removed = append(f.removed, id) }

func (f *fakeCoordinator) ReportState(id string, st session.PlayerState) {
	f.reports[id] = append(f.reports[id], st)
}

func (f *fakeCoordinator) SetForeground(id string, fg bool)     {}
func (f *fakeCoordinator) SetSessionEnabled(id string, en bool) {}

func (f *fakeCoordinator) NextCommand(ctx context.Context, id string) (session.Command, bool) {
	q := f.queued[id]
	if len(q) == 0 {
		return session.Command{}, false
	}
	cmd := q[0]
	f.queued[id] = q[1:]
	return cmd, true
}

func (f *fakeCoordinator) ChangeNotification(id string, st session.PlayerState) {
	f.notified = append(f.notified, id)
}

func (f *fakeCoordinator) MusicTabs() (enabled, disabled []session.Session) {
	return []session.Session{{ID: "sess-1", Enabled: true}}, []session.Session{{ID: "sess-2"}}
}

func (f *fakeCoordinator) HandleCommand(cmd session.Command) { f.commands = append(f.commands, cmd) }

func (f *fakeCoordinator) Sites() []SiteInfo {
	return []SiteInfo{{Key: "deezer", Name: "Deezer", Enabled: true}}
}

func (f *fakeCoordinator) SetSiteState(key string, st SiteStateRequest) bool {
	if key == "nosuchsite" {
		return false
	}
	f.siteStates[key] = st
	return true
}

func (f *fakeCoordinator) MatchSite(url string) (MatchSiteResponse, bool) {
	if url == "http://www.deezer.com" {
		return MatchSiteResponse{Matched: true, SiteKey: "deezer", Enabled: true}, true
	}
	return MatchSiteResponse{}, false
}

func (f *fakeCoordinator) Commands() []string { return []string{"playPause"} }

func serverFixture() (*fakeCoordinator, *httptest.Server) {
	coord := newFakeCoordinator()
	impl := serverImpl{coord: coord}
	return coord, httptest.NewServer(impl.createHandler())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestServer_SessionLifecycle(t *testing.T) {
	coord, srv := serverFixture()
	defer srv.Close()

	resp := postJSON(t, srv.URL+HelloPath, HelloRequest{URL: "http://www.deezer.com"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("hello status = %d", resp.StatusCode)
	}
	var hello HelloResponse
	if err := json.NewDecoder(resp.Body).Decode(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.SessionID != "sess-1" || hello.SiteKey != "deezer" {
		t.Errorf("unexpected hello response: %+v", hello)
	}

	r2 := postJSON(t, srv.URL+"/session/sess-1/state", session.PlayerState{SiteName: "Deezer", IsPlaying: true})
	r2.Body.Close()
	if len(coord.reports["sess-1"]) != 1 || !coord.reports["sess-1"][0].IsPlaying {
		t.Errorf("state report not delivered: %+v", coord.reports)
	}

	r3 := postJSON(t, srv.URL+"/session/sess-1/bye", nil)
	r3.Body.Close()
	if len(coord.removed) != 1 || coord.removed[0] != "sess-1" {
		t.Errorf("bye not delivered: %v", coord.removed)
	}
}

func TestServer_HelloError(t *testing.T) {
	_, srv := serverFixture()
	defer srv.Close()

	resp := postJSON(t, srv.URL+HelloPath, HelloRequest{URL: ""})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected error status, got %d", resp.StatusCode)
	}
	var r Response
	json.NewDecoder(resp.Body).Decode(&r)
	if r.Error == "" {
		t.Error("expected error message in response")
	}
}

func TestServer_CommandRouting(t *testing.T) {
	coord, srv := serverFixture()
	defer srv.Close()

	resp := postJSON(t, srv.URL+CommandPath, CommandRequest{
		Command:   "playPause",
		TabTarget: "sess-9",
	})
	resp.Body.Close()
	if len(coord.commands) != 1 {
		t.Fatalf("expected 1 routed command, got %d", len(coord.commands))
	}
	cmd := coord.commands[0]
	if cmd.Name != "playPause" || cmd.TargetSessionID != "sess-9" {
		t.Errorf("command not translated: %+v", cmd)
	}
}

func TestServer_NextCommand(t *testing.T) {
	coord, srv := serverFixture()
	defer srv.Close()

	// no command pending: 204
	resp, err := http.Get(srv.URL + "/session/sess-1/commands")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	coord.queued["sess-1"] = []session.Command{{Name: "playNext"}}
	resp, err = http.Get(srv.URL + "/session/sess-1/commands")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var cmd session.Command
	if err := json.NewDecoder(resp.Body).Decode(&cmd); err != nil {
		t.Fatal(err)
	}
	if cmd.Name != "playNext" {
		t.Errorf("wrong command delivered: %+v", cmd)
	}
}

func TestServer_TabsAndSites(t *testing.T) {
	_, srv := serverFixture()
	defer srv.Close()

	resp, err := http.Get(srv.URL + TabsPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var tabs TabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tabs); err != nil {
		t.Fatal(err)
	}
	if len(tabs.Enabled) != 1 || len(tabs.Disabled) != 1 {
		t.Errorf("bad tabs partition: %+v", tabs)
	}

	r2, err := http.Get(srv.URL + MatchSitePath + "?url=http%3A%2F%2Fwww.deezer.com")
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Body.Close()
	var match MatchSiteResponse
	if err := json.NewDecoder(r2.Body).Decode(&match); err != nil {
		t.Fatal(err)
	}
	if !match.Matched || match.SiteKey != "deezer" {
		t.Errorf("bad site match: %+v", match)
	}
}

func TestServer_SiteStateUpdate(t *testing.T) {
	coord, srv := serverFixture()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/sites/deezer", SiteStateRequest{Enabled: false, Notifications: true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("site state update status = %d", resp.StatusCode)
	}
	if st := coord.siteStates["deezer"]; st.Enabled || !st.Notifications {
		t.Errorf("site state not applied: %+v", st)
	}

	r2 := postJSON(t, srv.URL+"/sites/nosuchsite", SiteStateRequest{})
	r2.Body.Close()
	if r2.StatusCode != http.StatusNotFound {
		t.Errorf("unknown site should 404, got %d", r2.StatusCode)
	}
}
