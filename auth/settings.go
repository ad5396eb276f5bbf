package auth

import "time"

// Settings bundles the marketplace endpoints, selectors and step timeouts
// the login flow navigates with. Defaults target kleinanzeigen.de behind a
// local DevTools endpoint.
type Settings struct {
	Endpoint string // Browser DevTools websocket endpoint
	HomeURL  string
	LoginURL string

	GDPRSelector     string // Consent banner accept button
	EmailSelector    string
	PasswordSelector string
	SubmitSelector   string

	NavigationTimeout time.Duration
	FormTimeout       time.Duration
	BannerTimeout     time.Duration

	// ProbeGrace skips the live probe for cookie sets persisted this
	// recently: a set saved moments ago by the previous holder of the
	// account lock is trusted as-is, so a queued request does not open a
	// second browser session just to re-confirm it.
	ProbeGrace time.Duration

	// VerificationTimeout bounds how long the mail collaborator may take.
	VerificationTimeout time.Duration
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{
		Endpoint: "ws://localhost:9222",
		HomeURL:  "https://www.kleinanzeigen.de/",
		LoginURL: "https://www.kleinanzeigen.de/m-einloggen.html",

		GDPRSelector:     "#gdpr-banner-accept",
		EmailSelector:    "#login-email",
		PasswordSelector: "#login-password",
		SubmitSelector:   "#login-submit",

		NavigationTimeout: 60 * time.Second,
		FormTimeout:       10 * time.Second,
		BannerTimeout:     5 * time.Second,

		ProbeGrace:          time.Minute,
		VerificationTimeout: 2 * time.Minute,
	}
}
