package backend

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type AppConfig struct {
	SinglePlayerMode    bool
	UseMPRIS            bool
	ShowNotifications   bool
	OpenOnUpdate        bool
	LastLaunchedVersion string
}

// Empirically chosen timing defaults; overridable but their values are
// load-bearing for behavioral compatibility with existing adapters.
type TuningConfig struct {
	RecencyWindowMS       int
	NotificationTimeoutMS int
}

type SiteConfig struct {
	Enabled       bool
	Notifications bool
}

type Config struct {
	Application AppConfig
	Tuning      TuningConfig
	Sites       map[string]SiteConfig
}

func DefaultConfig(appVersionTag string) *Config {
	return &Config{
		Application: AppConfig{
			SinglePlayerMode:    false,
			UseMPRIS:            true,
			ShowNotifications:   true,
			OpenOnUpdate:        true,
			LastLaunchedVersion: appVersionTag,
		},
		Tuning: TuningConfig{
			RecencyWindowMS:       200,
			NotificationTimeoutMS: 5000,
		},
		Sites: map[string]SiteConfig{},
	}
}

func ReadConfigFile(filepath, appVersionTag string) (*Config, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig(appVersionTag)
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}

	if c.Tuning.RecencyWindowMS <= 0 {
		c.Tuning.RecencyWindowMS = 200
	}
	if c.Tuning.NotificationTimeoutMS <= 0 {
		c.Tuning.NotificationTimeoutMS = 5000
	}
	if c.Sites == nil {
		c.Sites = map[string]SiteConfig{}
	}

	return c, nil
}

var writeLock sync.Mutex

func (c *Config) WriteConfigFile(filepath string) error {
	if !writeLock.TryLock() {
		return nil // another write in progress
	}
	defer writeLock.Unlock()

	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, b, 0644)
}
