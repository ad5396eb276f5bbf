package config

import "time"

type RefreshConfig interface {
	GetRefreshInterval() time.Duration
	GetRefreshThreshold() time.Duration
	GetAutoRefreshOnStart() bool
}

type Refresh struct{}

var _ RefreshConfig = Refresh{}

// GetRefreshInterval is how often the scheduler sweeps all accounts.
func (Refresh) GetRefreshInterval() time.Duration {
	return getDuration("REFRESH_INTERVAL", 30*time.Minute)
}

// GetRefreshThreshold selects accounts whose next cookie expiry is this close.
func (Refresh) GetRefreshThreshold() time.Duration {
	return getDuration("REFRESH_THRESHOLD", 6*time.Hour)
}

// GetAutoRefreshOnStart arms the scheduler at boot instead of waiting for
// an explicit start request.
func (Refresh) GetAutoRefreshOnStart() bool {
	return GetEnv("AUTO_REFRESH", "") == "true"
}
