package auth

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/EinMelih/kleinanzeigen-auth/browser"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
)

// SessionValidator confirms a cookie set still authenticates against the
// live marketplace: fresh browsing context, inject cookies, load the home
// page, check the logged-in heuristic. This costs seconds and a browser
// page, so callers should run the cheap expiry analysis first.
type SessionValidator struct {
	browser  browser.Client
	settings Settings
}

// NewSessionValidator creates a validator over the given browser client.
func NewSessionValidator(browserClient browser.Client, settings Settings) *SessionValidator {
	return &SessionValidator{browser: browserClient, settings: settings}
}

// Validate runs the live probe. Any navigation or browser failure yields an
// invalid result rather than an error: a broken probe is indistinguishable
// from "not logged in" to the caller.
func (v *SessionValidator) Validate(ctx context.Context, set *cookies.CookieSet) cookies.ValidationResult {
	result := cookies.ValidationResult{
		Method:      cookies.MethodLiveProbe,
		CookieCount: len(set.Cookies),
	}

	session, err := v.browser.Connect(ctx, v.settings.Endpoint)
	if err != nil {
		return v.probeFailed(result, "connect", err)
	}
	defer func() { _ = session.Close() }()

	page, err := session.NewPage(ctx)
	if err != nil {
		return v.probeFailed(result, "new page", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetCookies(ctx, set.Cookies); err != nil {
		return v.probeFailed(result, "set cookies", err)
	}

	if out := page.Navigate(ctx, v.settings.HomeURL, v.settings.NavigationTimeout); !out.OK() {
		return v.probeFailed(result, "navigate", out.Err)
	}

	authenticated, err := page.IsAuthenticated(ctx)
	if err != nil {
		return v.probeFailed(result, "evaluate", err)
	}

	result.IsValid = authenticated
	if !authenticated {
		result.Reason = ReasonSessionProbeFailed
		result.Error = "marketplace did not accept the stored session"
	}
	return result
}

func (v *SessionValidator) probeFailed(result cookies.ValidationResult, step string, err error) cookies.ValidationResult {
	log.Warn().Err(err).Str("step", step).Msg("session probe failed")
	result.IsValid = false
	result.Reason = ReasonSessionProbeFailed
	result.Error = "live probe failed during " + step
	return result
}
