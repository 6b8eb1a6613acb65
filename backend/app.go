package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path"
	"reflect"
	"runtime"
	"time"

	"github.com/berrberr/gshotkeys/backend/bridge"
	"github.com/berrberr/gshotkeys/backend/ipc"
	"github.com/berrberr/gshotkeys/backend/mprishost"
	"github.com/berrberr/gshotkeys/backend/session"
	"github.com/berrberr/gshotkeys/backend/util"
	"github.com/berrberr/gshotkeys/res"
	"github.com/berrberr/gshotkeys/sharedutil"
	"github.com/fsnotify/fsnotify"

	"github.com/20after4/configdir"
)

const configFile = "config.toml"

var (
	ErrAnotherInstance = errors.New("another instance is running")
	ErrNotMusicSite    = errors.New("url does not match a supported music site")
)

type App struct {
	Config           *Config
	SessionManager   *SessionManager
	Router           *CommandRouter
	NotificationGate *NotificationGate
	Bridge           *bridge.Bridge
	BridgeSync       *BridgeSync
	Sitelist         *Sitelist
	ArtCache         *ArtCache

	appName       string
	appVersionTag string
	configDir     string
	cacheDir      string

	isFirstLaunch bool // set by config file reader
	bgrndCtx      context.Context
	cancel        context.CancelFunc
	ipcServer     *http.Server

	lastWrittenCfg Config
}

func (a *App) VersionTag() string {
	return a.appVersionTag
}

func StartupApp(appName, displayAppName, appVersionTag string) (*App, error) {
	confDir := configdir.LocalConfig(appName)
	cacheDir := configdir.LocalCache(appName)
	configdir.MakePath(confDir)
	configdir.MakePath(cacheDir)

	if _, err := ipc.Connect(); err == nil {
		log.Println("Another instance is running.")
		return nil, ErrAnotherInstance
	}

	log.Printf("Starting %s...", appName)
	log.Printf("Using config dir: %s", confDir)
	log.Printf("Using cache dir: %s", cacheDir)

	a := &App{
		appName:       appName,
		appVersionTag: appVersionTag,
		configDir:     confDir,
		cacheDir:      cacheDir,
	}
	a.bgrndCtx, a.cancel = context.WithCancel(context.Background())
	a.readConfig()
	a.checkUpdated()
	a.startConfigWriter(a.bgrndCtx)

	a.Sitelist = NewSitelist(a.Config)
	a.SessionManager = NewSessionManager()
	a.ArtCache = NewArtCache(cacheDir)

	recencyWindow := time.Duration(a.Config.Tuning.RecencyWindowMS) * time.Millisecond
	a.Router = NewCommandRouter(
		a.SessionManager.Store(),
		a.SessionManager,
		func() bool { return a.Config.Application.SinglePlayerMode },
		recencyWindow,
	)

	sender, err := NewDBusNotifier(displayAppName)
	if err != nil {
		log.Printf("desktop notifications unavailable: %v", err)
	} else {
		timeout := time.Duration(a.Config.Tuning.NotificationTimeoutMS) * time.Millisecond
		a.NotificationGate = NewNotificationGate(sender, timeout)
	}

	a.Bridge = bridge.New(a.newBridgeTransport(displayAppName), func(cmd session.Command) {
		a.Router.Route(cmd, a.SessionManager.ActiveSessions())
	})
	a.BridgeSync = NewBridgeSync(a.SessionManager, a.Bridge, recencyWindow)

	a.startConfigWatcher()

	listener, err := ipc.Listen()
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC socket: %v", err)
	}
	a.ipcServer = ipc.NewServer(a)
	go a.ipcServer.Serve(listener)

	return a, nil
}

func (a *App) IsFirstLaunch() bool {
	return a.isFirstLaunch
}

// newBridgeTransport returns the lazy transport factory for the
// bridge: the MPRIS host when enabled in config, unavailable
// otherwise. The bridge stays closed when the factory fails; command
// routing works regardless.
func (a *App) newBridgeTransport(displayAppName string) func() (bridge.Transport, error) {
	return func() (bridge.Transport, error) {
		if !a.Config.Application.UseMPRIS {
			return nil, errors.New("MPRIS support disabled in config")
		}
		return mprishost.New(displayAppName), nil
	}
}

func (a *App) readConfig() {
	cfgPath := a.configFilePath()
	var cfgExists bool
	if _, err := os.Stat(cfgPath); err == nil {
		cfgExists = true
	}
	a.isFirstLaunch = !cfgExists
	cfg, err := ReadConfigFile(cfgPath, a.appVersionTag)
	if err != nil {
		log.Printf("Error reading app config file: %v", err)
		cfg = DefaultConfig(a.appVersionTag)
		if cfgExists {
			backupCfgName := fmt.Sprintf("%s.bak", configFile)
			log.Printf("Config file may be malformed: copying to %s", backupCfgName)
			_ = util.CopyFile(cfgPath, path.Join(a.configDir, backupCfgName))
		}
	}
	a.Config = cfg
}

// checkUpdated opens the usage guide when the app version changed
// since the last launch, matching the control clients' onboarding flow.
func (a *App) checkUpdated() {
	last := a.Config.Application.LastLaunchedVersion
	a.Config.Application.LastLaunchedVersion = a.appVersionTag
	if a.isFirstLaunch || last == a.appVersionTag {
		return
	}
	log.Printf("Updated from %s to %s", last, a.appVersionTag)
	if a.Config.Application.OpenOnUpdate {
		openBrowser(res.GuideURL)
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("unable to open browser: %v", err)
	}
}

// periodically save config file so abnormal exit won't lose settings
func (a *App) startConfigWriter(ctx context.Context) {
	tick := time.NewTicker(2 * time.Minute)
	go func() {
		for {
			select {
			case <-ctx.Done():
				tick.Stop()
				return
			case <-tick.C:
				if !reflect.DeepEqual(&a.lastWrittenCfg, a.Config) {
					a.Config.WriteConfigFile(a.configFilePath())
					a.lastWrittenCfg = *a.Config
				}
			}
		}
	}()
}

// startConfigWatcher reloads site settings when the config file is
// edited externally (the settings UI writes it out-of-process).
func (a *App) startConfigWatcher() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("unable to watch config file: %v", err)
		return
	}
	watcher.Add(a.configDir)
	go func() {
		for {
			select {
			case <-a.bgrndCtx.Done():
				watcher.Close()
				return
			case ev := <-watcher.Events:
				if path.Base(ev.Name) != configFile || !ev.Has(fsnotify.Write) {
					continue
				}
				cfg, err := ReadConfigFile(a.configFilePath(), a.appVersionTag)
				if err != nil {
					continue
				}
				a.Config.Application = cfg.Application
				a.Config.Tuning = cfg.Tuning
				a.Config.Sites = cfg.Sites
				a.Sitelist.LoadSettings()
			}
		}
	}()
}

func (a *App) SaveConfigFile() {
	a.Config.WriteConfigFile(a.configFilePath())
	a.lastWrittenCfg = *a.Config
}

func (a *App) configFilePath() string {
	return path.Join(a.configDir, configFile)
}

func (a *App) Shutdown() {
	a.ipcServer.Close()
	a.Bridge.Shutdown()
	a.SaveConfigFile()
	a.cancel()
	ipc.DestroyConn()
}

// ipc.Coordinator implementation

func (a *App) RegisterSession(url string) (*session.Session, error) {
	site, ok := a.Sitelist.Match(url)
	if !ok {
		return nil, ErrNotMusicSite
	}
	s := a.SessionManager.Register(url, site.Key)
	if !site.Enabled {
		a.SessionManager.SetEnabled(s.ID, false)
	}
	return s, nil
}

func (a *App) RemoveSession(sessionID string) {
	a.SessionManager.Remove(sessionID)
}

func (a *App) ReportState(sessionID string, st session.PlayerState) {
	a.SessionManager.ReportState(sessionID, st)
}

func (a *App) SetForeground(sessionID string, foreground bool) {
	a.SessionManager.SetForeground(sessionID, foreground)
}

func (a *App) SetSessionEnabled(sessionID string, enabled bool) {
	a.SessionManager.SetEnabled(sessionID, enabled)
}

func (a *App) NextCommand(ctx context.Context, sessionID string) (session.Command, bool) {
	return a.SessionManager.NextCommand(ctx, sessionID)
}

func (a *App) ChangeNotification(sessionID string, st session.PlayerState) {
	if a.NotificationGate == nil || !a.Config.Application.ShowNotifications {
		return
	}
	s, ok := a.SessionManager.Get(sessionID)
	if !ok || !s.Enabled || !a.Sitelist.ShowNotifications(s.URL) {
		return
	}
	// swap the remote art URL for a local cached copy;
	// the notification service can't fetch remote icons
	st.ArtURL = a.ArtCache.GetArtFile(st.ArtURL)
	a.NotificationGate.Notify(sessionID, st)
}

func (a *App) MusicTabs() (enabled, disabled []session.Session) {
	sessions := a.SessionManager.Sessions()
	enabled = sharedutil.FilterMapSlice(sessions, func(s *session.Session) (session.Session, bool) {
		return *s, s.Enabled
	})
	disabled = sharedutil.FilterMapSlice(sessions, func(s *session.Session) (session.Session, bool) {
		return *s, !s.Enabled
	})
	return enabled, disabled
}

func (a *App) HandleCommand(cmd session.Command) {
	a.Router.Route(cmd, a.SessionManager.ActiveSessions())
}

func (a *App) Sites() []ipc.SiteInfo {
	return sharedutil.MapSlice(a.Sitelist.Sites(), func(s *Site) ipc.SiteInfo {
		return ipc.SiteInfo{
			Key:           s.Key,
			Name:          s.Name,
			URL:           s.URL,
			Enabled:       s.Enabled,
			Notifications: s.Notifications,
		}
	})
}

func (a *App) SetSiteState(key string, st ipc.SiteStateRequest) bool {
	ok := a.Sitelist.SetSiteState(key, SiteConfig{
		Enabled:       st.Enabled,
		Notifications: st.Notifications,
	})
	if ok {
		a.SaveConfigFile()
	}
	return ok
}

func (a *App) MatchSite(url string) (ipc.MatchSiteResponse, bool) {
	s, ok := a.Sitelist.Match(url)
	if !ok {
		return ipc.MatchSiteResponse{}, false
	}
	return ipc.MatchSiteResponse{Matched: true, SiteKey: s.Key, Enabled: s.Enabled}, true
}

func (a *App) Commands() []string {
	return []string{
		session.CmdPlayPause,
		session.CmdPlayNext,
		session.CmdPlayPrev,
		session.CmdStop,
		session.CmdMute,
		session.CmdSeek,
		session.CmdVolume,
		session.CmdLike,
		session.CmdDislike,
	}
}
