package browserfakes

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/EinMelih/kleinanzeigen-auth/browser"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/pkg/errors"
)

var _ browser.Client = (*FakeBrowser)(nil)

// FakeBrowser is a scriptable in-memory browser. One instance acts as
// client, session and page so tests can assert across the whole flow.
type FakeBrowser struct {
	lock sync.Mutex

	// Scripting
	ConnectErr         error
	LoggedIn           bool            // IsAuthenticated result without submitting credentials
	LoginSucceeds      bool            // IsAuthenticated flips true once credentials were submitted
	HiddenSelectors    map[string]bool // WaitForSelector times out for these
	NeedsVerification  bool
	VerificationReason string
	PageCookies        []cookies.Cookie

	// Recording
	ConnectCalls int
	NewPageCalls int
	Navigations  []string
	Fills        map[string]string
	Clicks       []string

	submitted bool
}

func NewFakeBrowser() *FakeBrowser {
	return &FakeBrowser{
		HiddenSelectors: make(map[string]bool),
		Fills:           make(map[string]string),
	}
}

func (b *FakeBrowser) Connect(_ context.Context, _ string) (browser.Session, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.ConnectErr != nil {
		return nil, b.ConnectErr
	}
	b.ConnectCalls++
	return &fakeSession{b: b}, nil
}

// Hide makes WaitForSelector time out for the given selector.
func (b *FakeBrowser) Hide(selector string) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.HiddenSelectors[selector] = true
}

// SubmittedCredentials reports whether a credential form was filled and submitted.
func (b *FakeBrowser) SubmittedCredentials() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.submitted
}

type fakeSession struct {
	b *FakeBrowser
}

func (s *fakeSession) NewPage(_ context.Context) (browser.Page, error) {
	s.b.lock.Lock()
	defer s.b.lock.Unlock()

	s.b.NewPageCalls++
	return &fakePage{b: s.b}, nil
}

func (s *fakeSession) Close() error { return nil }

type fakePage struct {
	b *FakeBrowser
}

func (p *fakePage) SetCookies(_ context.Context, _ []cookies.Cookie) error {
	return nil
}

func (p *fakePage) Navigate(_ context.Context, url string, _ time.Duration) browser.StepOutcome {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	p.b.Navigations = append(p.b.Navigations, url)
	return browser.Success()
}

func (p *fakePage) WaitForSelector(_ context.Context, selector string, _ time.Duration) browser.StepOutcome {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	if p.b.HiddenSelectors[selector] {
		return browser.SelectorMissing(errors.Errorf("selector %q not visible", selector))
	}
	return browser.Success()
}

func (p *fakePage) Fill(_ context.Context, selector, text string) browser.StepOutcome {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	p.b.Fills[selector] = text
	return browser.Success()
}

func (p *fakePage) Click(_ context.Context, selector string) browser.StepOutcome {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	p.b.Clicks = append(p.b.Clicks, selector)
	if strings.Contains(selector, "submit") && len(p.b.Fills) > 0 {
		p.b.submitted = true
	}
	return browser.Success()
}

func (p *fakePage) IsAuthenticated(_ context.Context) (bool, error) {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	if p.b.LoggedIn {
		return true, nil
	}
	return p.b.submitted && p.b.LoginSucceeds, nil
}

func (p *fakePage) VerificationPrompt(_ context.Context) (bool, string, error) {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	return p.b.NeedsVerification, p.b.VerificationReason, nil
}

func (p *fakePage) Cookies(_ context.Context) ([]cookies.Cookie, error) {
	p.b.lock.Lock()
	defer p.b.lock.Unlock()

	return append([]cookies.Cookie(nil), p.b.PageCookies...), nil
}

func (p *fakePage) Close() error { return nil }
