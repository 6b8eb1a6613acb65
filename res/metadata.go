package res

const (
	AppName       = "gshotkeys"
	DisplayName   = "GShotkeys"
	AppVersion    = "1.6.0"
	AppVersionTag = "v" + AppVersion
	ConfigFile    = "config.toml"
	GithubURL     = "https://github.com/berrberr/gshotkeys"
	GuideURL      = "http://www.streamkeys.com/guide.html"
)
