// Package cdp adapts a remote Chrome DevTools endpoint to the browser
// contract. It attaches to an already-running browser over its websocket
// debugger URL; process lifecycle stays outside the service.
package cdp

import (
	"context"
	"fmt"
	"time"

	cdpruntime "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"github.com/EinMelih/kleinanzeigen-auth/browser"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
)

var _ browser.Client = (*Client)(nil)

// Selectors holds the DOM markers the logged-in heuristic looks for. The
// defaults target kleinanzeigen.de.
type Selectors struct {
	AuthenticatedMarker string // Present only for a logged-in user
	LoginAffordance     string // Visible "log in" link/button
	VerificationPrompt  string // Secondary e-mail confirmation prompt
}

func DefaultSelectors() Selectors {
	return Selectors{
		AuthenticatedMarker: "#user-email, a[href*='m-meine-anzeigen']",
		LoginAffordance:     "a[href*='m-einloggen']",
		VerificationPrompt:  "[data-testid='login-verification'], #verification-code",
	}
}

// Client connects to remote browsers over CDP.
type Client struct {
	selectors Selectors
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithSelectors overrides the default DOM markers.
func WithSelectors(s Selectors) ClientOption {
	return func(c *Client) {
		c.selectors = s
	}
}

// New creates a CDP client.
func New(options ...ClientOption) *Client {
	c := &Client{selectors: DefaultSelectors()}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Connect attaches to the browser behind the websocket endpoint
// (e.g. "ws://localhost:9222"). No page is opened yet.
func (c *Client) Connect(ctx context.Context, endpoint string) (browser.Session, error) {
	allocCtx, cancel := chromedp.NewRemoteAllocator(ctx, endpoint)
	return &session{
		client:   c,
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

type session struct {
	client   *Client
	allocCtx context.Context
	cancel   context.CancelFunc
}

func (s *session) NewPage(_ context.Context) (browser.Page, error) {
	pageCtx, cancel := chromedp.NewContext(s.allocCtx)

	// Establish the target eagerly so connection failures surface here
	// instead of on the first step.
	if err := chromedp.Run(pageCtx); err != nil {
		cancel()
		return nil, errors.Wrap(err, "[session.NewPage] attach target")
	}

	return &page{client: s.client, ctx: pageCtx, cancel: cancel}, nil
}

func (s *session) Close() error {
	s.cancel()
	return nil
}

// page runs every step on the chromedp context created in NewPage; the
// per-step timeout is layered on top of it.
type page struct {
	client *Client
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *page) SetCookies(_ context.Context, cs []cookies.Cookie) error {
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cs {
			param := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly)
			if !c.Expires.IsZero() {
				expires := cdpruntime.TimeSinceEpoch(c.Expires)
				param = param.WithExpires(&expires)
			}
			if err := param.Do(ctx); err != nil {
				return errors.Wrapf(err, "set cookie %q", c.Name)
			}
		}
		return nil
	}))
	return errors.Wrap(err, "[page.SetCookies]")
}

func (p *page) Navigate(_ context.Context, url string, timeout time.Duration) browser.StepOutcome {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return browser.TimedOut(errors.Wrapf(err, "navigate %s", url))
		}
		return browser.Failed(errors.Wrapf(err, "navigate %s", url))
	}
	return browser.Success()
}

func (p *page) WaitForSelector(_ context.Context, selector string, timeout time.Duration) browser.StepOutcome {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		// A wait that runs out of time means the element never showed up.
		if errors.Is(err, context.DeadlineExceeded) {
			return browser.SelectorMissing(errors.Wrapf(err, "wait for %q", selector))
		}
		return browser.Failed(errors.Wrapf(err, "wait for %q", selector))
	}
	return browser.Success()
}

func (p *page) Fill(_ context.Context, selector, text string) browser.StepOutcome {
	if err := chromedp.Run(p.ctx, chromedp.SetValue(selector, text, chromedp.ByQuery)); err != nil {
		return browser.Failed(errors.Wrapf(err, "fill %q", selector))
	}
	return browser.Success()
}

func (p *page) Click(_ context.Context, selector string) browser.StepOutcome {
	if err := chromedp.Run(p.ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return browser.Failed(errors.Wrapf(err, "click %q", selector))
	}
	return browser.Success()
}

func (p *page) IsAuthenticated(_ context.Context) (bool, error) {
	predicate := fmt.Sprintf(
		`document.querySelector(%q) !== null && document.querySelector(%q) === null`,
		p.client.selectors.AuthenticatedMarker,
		p.client.selectors.LoginAffordance,
	)

	var authenticated bool
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(predicate, &authenticated)); err != nil {
		return false, errors.Wrap(err, "[page.IsAuthenticated] evaluate")
	}
	return authenticated, nil
}

func (p *page) VerificationPrompt(_ context.Context) (bool, string, error) {
	predicate := fmt.Sprintf(`document.querySelector(%q) !== null`, p.client.selectors.VerificationPrompt)

	var present bool
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(predicate, &present)); err != nil {
		return false, "", errors.Wrap(err, "[page.VerificationPrompt] evaluate")
	}
	if !present {
		return false, "", nil
	}
	return true, "EMAIL_CONFIRMATION", nil
}

func (p *page) Cookies(_ context.Context) ([]cookies.Cookie, error) {
	var raw []*network.Cookie
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, errors.Wrap(err, "[page.Cookies] storage.GetCookies")
	}

	cs := make([]cookies.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := cookies.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			Session:  c.Session,
		}
		if !c.Session && c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0).UTC()
		}
		cs = append(cs, cookie)
	}
	return cs, nil
}

func (p *page) Close() error {
	p.cancel()
	return nil
}
