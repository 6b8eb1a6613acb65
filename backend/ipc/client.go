package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/berrberr/gshotkeys/backend/session"
)

var ErrPingFail = errors.New("ping failed")

// Client talks to a running coordinator daemon over the IPC socket.
// It is used by site adapters (session lifecycle and state reports)
// and by control surfaces (commands and queries).
type Client struct {
	httpC http.Client
}

// Connect dials the IPC socket and verifies the daemon responds.
func Connect() (*Client, error) {
	client := &Client{httpC: http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return Dial()
			},
		},
	}}
	if err := client.Ping(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) Ping() error {
	if err := c.get(PingPath, nil); err != nil {
		return ErrPingFail
	}
	return nil
}

// Hello registers a new session for the adapter at url.
func (c *Client) Hello(siteURL string) (HelloResponse, error) {
	var resp HelloResponse
	err := c.post(HelloPath, HelloRequest{URL: siteURL}, &resp)
	return resp, err
}

func (c *Client) ReportState(sessionID string, st session.PlayerState) error {
	return c.post(sessionPath(StatePath, sessionID), st, nil)
}

func (c *Client) SetForeground(sessionID string, foreground bool) error {
	return c.post(sessionPath(ForegroundPath, sessionID), ForegroundRequest{Foreground: foreground}, nil)
}

func (c *Client) SetEnabled(sessionID string, enabled bool) error {
	return c.post(sessionPath(SetEnabledPath, sessionID), EnabledRequest{Enabled: enabled}, nil)
}

func (c *Client) Bye(sessionID string) error {
	return c.post(sessionPath(ByePath, sessionID), nil, nil)
}

// NextCommand long-polls for the session's next command. ok is false
// when the session has ended.
func (c *Client) NextCommand(sessionID string) (cmd session.Command, ok bool, err error) {
	resp, err := c.httpC.Get(baseURL + sessionPath(NextCommandPath, sessionID))
	if err != nil {
		return session.Command{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return session.Command{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return session.Command{}, false, decodeError(resp)
	}
	err = json.NewDecoder(resp.Body).Decode(&cmd)
	return cmd, err == nil, err
}

func (c *Client) Notify(sessionID string, st session.PlayerState) error {
	return c.post(sessionPath(NotifyPath, sessionID), st, nil)
}

func (c *Client) MusicTabs() (TabsResponse, error) {
	var resp TabsResponse
	err := c.get(TabsPath, &resp)
	return resp, err
}

// SendCommand routes a command; target may be empty for policy-based
// routing.
func (c *Client) SendCommand(name string, args []any, target string) error {
	return c.post(CommandPath, CommandRequest{Command: name, Args: args, TabTarget: target}, nil)
}

func (c *Client) Sites() ([]SiteInfo, error) {
	var sites []SiteInfo
	err := c.get(SitesPath, &sites)
	return sites, err
}

func (c *Client) SetSiteState(key string, st SiteStateRequest) error {
	return c.post(sessionPath(SiteStatePath, key), st, nil)
}

func (c *Client) MatchSite(siteURL string) (MatchSiteResponse, error) {
	var resp MatchSiteResponse
	err := c.get(MatchSitePath+"?url="+url.QueryEscape(siteURL), &resp)
	return resp, err
}

func (c *Client) Commands() ([]string, error) {
	var cmds []string
	err := c.get(CommandListPath, &cmds)
	return cmds, err
}

const baseURL = "http://gshotkeys"

// sessionPath substitutes the single path wildcard with id.
func sessionPath(pattern, id string) string {
	pattern = strings.Replace(pattern, "{id}", url.PathEscape(id), 1)
	return strings.Replace(pattern, "{key}", url.PathEscape(id), 1)
}

func (c *Client) get(path string, out any) error {
	resp, err := c.httpC.Get(baseURL + path)
	if err != nil {
		return err
	}
	return c.finish(resp, out)
}

func (c *Client) post(path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := c.httpC.Post(baseURL+path, "application/json", &buf)
	if err != nil {
		return err
	}
	return c.finish(resp, out)
}

func (c *Client) finish(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var r Response
	json.NewDecoder(resp.Body).Decode(&r)
	if r.Error == "" {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return errors.New(r.Error)
}
