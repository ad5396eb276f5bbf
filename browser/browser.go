// Package browser defines the narrow contract the session core uses to
// drive a browser. The service never manages the browser process itself:
// it connects to an already-running instance over its DevTools endpoint.
package browser

import (
	"context"
	"time"

	"github.com/EinMelih/kleinanzeigen-auth/cookies"
)

// Client opens sessions against a remote browser endpoint.
type Client interface {
	Connect(ctx context.Context, endpoint string) (Session, error)
}

// Session is one connected browsing context. Close releases it.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. Step-style operations (Navigate, WaitForSelector,
// Fill, Click) return a tagged StepOutcome instead of an error so each
// failure mode feeds directly into the login state machine.
type Page interface {
	// SetCookies injects cookies before navigation.
	SetCookies(ctx context.Context, cs []cookies.Cookie) error

	// Navigate loads a URL, bounded by the given timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) StepOutcome

	// WaitForSelector waits until the selector is visible or the timeout elapses.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) StepOutcome

	// Fill types text into the element matching the selector.
	Fill(ctx context.Context, selector, text string) StepOutcome

	// Click clicks the element matching the selector.
	Click(ctx context.Context, selector string) StepOutcome

	// IsAuthenticated evaluates the logged-in heuristic: an
	// authenticated-user marker is present and no login affordance is
	// visible. The heuristic stays behind this boolean; callers never see
	// the underlying DOM predicate.
	IsAuthenticated(ctx context.Context) (bool, error)

	// VerificationPrompt reports whether the marketplace is blocking the
	// session on a secondary confirmation step, with a reason code.
	VerificationPrompt(ctx context.Context) (bool, string, error)

	// Cookies returns everything the browser currently holds for the page.
	Cookies(ctx context.Context) ([]cookies.Cookie, error)

	Close() error
}
