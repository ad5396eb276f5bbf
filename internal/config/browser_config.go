package config

import "time"

type BrowserConfig interface {
	GetBrowserEndpoint() string
	GetHomeURL() string
	GetLoginURL() string
	GetNavigationTimeout() time.Duration
	GetFormTimeout() time.Duration
}

type Browser struct{}

var _ BrowserConfig = Browser{}

// GetBrowserEndpoint returns the DevTools websocket endpoint of the
// already-running browser the service attaches to.
func (Browser) GetBrowserEndpoint() string {
	return GetEnv("BROWSER_ENDPOINT", "ws://localhost:9222")
}

func (Browser) GetHomeURL() string {
	return GetEnv("HOME_URL", "https://www.kleinanzeigen.de/")
}

func (Browser) GetLoginURL() string {
	return GetEnv("LOGIN_URL", "https://www.kleinanzeigen.de/m-einloggen.html")
}

func (Browser) GetNavigationTimeout() time.Duration {
	return getDuration("NAVIGATION_TIMEOUT", 60*time.Second)
}

func (Browser) GetFormTimeout() time.Duration {
	return getDuration("FORM_TIMEOUT", 10*time.Second)
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
