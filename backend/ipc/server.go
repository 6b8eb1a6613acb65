package ipc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/berrberr/gshotkeys/backend/session"
)

// Coordinator is the backend surface the IPC server exposes. All
// methods are non-blocking except NextCommand, which parks until a
// command is available or ctx is done.
type Coordinator interface {
	RegisterSession(url string) (*session.Session, error)
	RemoveSession(sessionID string)
	ReportState(sessionID string, st session.PlayerState)
	SetForeground(sessionID string, foreground bool)
	SetSessionEnabled(sessionID string, enabled bool)
	NextCommand(ctx context.Context, sessionID string) (session.Command, bool)
	ChangeNotification(sessionID string, st session.PlayerState)

	MusicTabs() (enabled, disabled []session.Session)
	HandleCommand(cmd session.Command)
	Sites() []SiteInfo
	SetSiteState(key string, st SiteStateRequest) bool
	MatchSite(url string) (MatchSiteResponse, bool)
	Commands() []string
}

// SiteInfo is the control surface's view of one supported site.
type SiteInfo struct {
	Key           string `json:"key"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Enabled       bool   `json:"enabled"`
	Notifications bool   `json:"notifications"`
}

type serverImpl struct {
	coord Coordinator
}

func NewServer(coord Coordinator) *http.Server {
	s := serverImpl{coord: coord}
	return &http.Server{
		Handler: s.createHandler(),
	}
}

func (s *serverImpl) createHandler() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("The given path is not valid"))
	})
	m.HandleFunc("GET "+PingPath, s.makeSimpleEndpointHandler(func() error { return nil }))

	m.HandleFunc("POST "+HelloPath, func(w http.ResponseWriter, r *http.Request) {
		var req HelloRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErr(w, err)
			return
		}
		sess, err := s.coord.RegisterSession(req.URL)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		s.writeJSON(w, HelloResponse{SessionID: sess.ID, SiteKey: sess.SiteKey})
	})

	m.HandleFunc("POST "+StatePath, func(w http.ResponseWriter, r *http.Request) {
		var st session.PlayerState
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			s.writeErr(w, err)
			return
		}
		s.coord.ReportState(r.PathValue("id"), st)
		s.writeOK(w)
	})

	m.HandleFunc("POST "+ForegroundPath, func(w http.ResponseWriter, r *http.Request) {
		var req ForegroundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErr(w, err)
			return
		}
		s.coord.SetForeground(r.PathValue("id"), req.Foreground)
		s.writeOK(w)
	})

	m.HandleFunc("POST "+SetEnabledPath, func(w http.ResponseWriter, r *http.Request) {
		var req EnabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErr(w, err)
			return
		}
		s.coord.SetSessionEnabled(r.PathValue("id"), req.Enabled)
		s.writeOK(w)
	})

	m.HandleFunc("POST "+ByePath, func(w http.ResponseWriter, r *http.Request) {
		s.coord.RemoveSession(r.PathValue("id"))
		s.writeOK(w)
	})

	m.HandleFunc("GET "+NextCommandPath, func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := s.coord.NextCommand(r.Context(), r.PathValue("id"))
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.writeJSON(w, cmd)
	})

	m.HandleFunc("POST "+NotifyPath, func(w http.ResponseWriter, r *http.Request) {
		var st session.PlayerState
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			s.writeErr(w, err)
			return
		}
		s.coord.ChangeNotification(r.PathValue("id"), st)
		s.writeOK(w)
	})

	m.HandleFunc("GET "+TabsPath, func(w http.ResponseWriter, r *http.Request) {
		enabled, disabled := s.coord.MusicTabs()
		s.writeJSON(w, TabsResponse{Enabled: enabled, Disabled: disabled})
	})

	m.HandleFunc("POST "+CommandPath, func(w http.ResponseWriter, r *http.Request) {
		var req CommandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErr(w, err)
			return
		}
		s.coord.HandleCommand(session.Command{
			Name:            req.Command,
			Args:            req.Args,
			TargetSessionID: req.TabTarget,
		})
		s.writeOK(w)
	})

	m.HandleFunc("GET "+SitesPath, func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, s.coord.Sites())
	})

	m.HandleFunc("POST "+SiteStatePath, func(w http.ResponseWriter, r *http.Request) {
		var req SiteStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErr(w, err)
			return
		}
		if !s.coord.SetSiteState(r.PathValue("key"), req) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.writeOK(w)
	})

	m.HandleFunc("GET "+MatchSitePath, func(w http.ResponseWriter, r *http.Request) {
		resp, _ := s.coord.MatchSite(r.URL.Query().Get("url"))
		s.writeJSON(w, resp)
	})

	m.HandleFunc("GET "+CommandListPath, func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, s.coord.Commands())
	})

	return m
}

func (s *serverImpl) makeSimpleEndpointHandler(f func() error) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeSimpleResponse(w, f())
	}
}

func (s *serverImpl) writeSimpleResponse(w http.ResponseWriter, err error) {
	if err == nil {
		s.writeOK(w)
	} else {
		s.writeErr(w, err)
	}
}

func (s *serverImpl) writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.Write(b)
}

func (s *serverImpl) writeOK(w http.ResponseWriter) (int, error) {
	var r Response
	b, err := json.Marshal(&r)
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

func (s *serverImpl) writeErr(w http.ResponseWriter, err error) (int, error) {
	r := Response{Error: err.Error()}
	b, err := json.Marshal(&r)
	if err != nil {
		return 0, err
	}
	w.WriteHeader(http.StatusInternalServerError)
	return w.Write(b)
}
