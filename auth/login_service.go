package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	"github.com/EinMelih/kleinanzeigen-auth/browser"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/EinMelih/kleinanzeigen-auth/mailverify"
)

// Repos holds all repository dependencies for the LoginService.
type Repos struct {
	Cookies  cookies.Repo  // Persisted per-account cookie sets
	Accounts accounts.Repo // Account and credential records
}

// LoginService decides, per account, whether stored cookies make a login
// unnecessary, whether a live probe is enough, or whether a full credential
// login has to run, and persists the resulting cookies. All operations for
// one account are mutually exclusive; different accounts run concurrently.
type LoginService struct {
	repos     Repos
	browser   browser.Client
	vault     *accounts.Vault
	verifier  mailverify.Verifier // Optional mail confirmation collaborator
	analyzer  *cookies.Analyzer
	validator *SessionValidator
	settings  Settings
	locks     *accountLocks
	nowTime   func() time.Time
}

// LoginServiceOption defines a function type to modify the LoginService instance.
type LoginServiceOption func(*LoginService)

// WithSettings overrides the default marketplace settings.
func WithSettings(settings Settings) LoginServiceOption {
	return func(ls *LoginService) {
		ls.settings = settings
	}
}

// WithVerifier wires the e-mail confirmation collaborator.
func WithVerifier(verifier mailverify.Verifier) LoginServiceOption {
	return func(ls *LoginService) {
		ls.verifier = verifier
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) LoginServiceOption {
	return func(ls *LoginService) {
		ls.nowTime = nowFunc
	}
}

// NewLoginService initializes a LoginService with required dependencies.
func NewLoginService(repos Repos, browserClient browser.Client, vault *accounts.Vault, options ...LoginServiceOption) (*LoginService, error) {
	if repos.Cookies == nil {
		return nil, errors.New("[NewLoginService] Cookies repo is required")
	}
	if repos.Accounts == nil {
		return nil, errors.New("[NewLoginService] Accounts repo is required")
	}
	if browserClient == nil {
		return nil, errors.New("[NewLoginService] browser client is required")
	}
	if vault == nil {
		return nil, errors.New("[NewLoginService] vault is required")
	}

	ls := &LoginService{
		repos:    repos,
		browser:  browserClient,
		vault:    vault,
		analyzer: cookies.NewAnalyzer(),
		settings: DefaultSettings(),
		locks:    newAccountLocks(),
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(ls)
	}

	ls.analyzer = cookies.NewAnalyzer(cookies.WithNowTime(ls.nowTime))
	ls.validator = NewSessionValidator(browserClient, ls.settings)

	return ls, nil
}

// Login establishes (or confirms) an authenticated session for the account.
// A supplied password updates the stored credential record; with an empty
// password the stored one is used. The returned error is non-nil only for
// unexpected persistence faults.
func (ls *LoginService) Login(ctx context.Context, email, password string) (Outcome, error) {
	accountKey := accounts.Key(email)

	release := ls.locks.acquire(accountKey)
	defer release()

	if err := ls.ensureAccount(accountKey, email, password); err != nil {
		return Outcome{AccountKey: accountKey, Email: email}, err
	}
	return ls.loginLocked(ctx, accountKey, email, password)
}

// Refresh re-establishes the session for a known account using its stored
// credentials. Used by the scheduler and the refresh endpoints.
func (ls *LoginService) Refresh(ctx context.Context, accountKey string) (Outcome, error) {
	account, err := ls.repos.Accounts.Get(accountKey)
	if err != nil {
		if errors.Is(err, accounts.NotFoundErr) {
			// A cookie record without an account: refresh with cookies only.
			release := ls.locks.acquire(accountKey)
			defer release()
			return ls.loginLocked(ctx, accountKey, "", "")
		}
		return Outcome{AccountKey: accountKey}, errors.Wrap(err, "[LoginService.Refresh] load account")
	}

	release := ls.locks.acquire(accountKey)
	defer release()

	return ls.loginLocked(ctx, accountKey, account.Email, "")
}

// Status reports the cheap expiry-only validation of the stored cookies.
func (ls *LoginService) Status(email string) cookies.ValidationResult {
	set, err := ls.repos.Cookies.Load(accounts.Key(email))
	if err != nil {
		if errors.Is(err, cookies.CorruptRecordErr) {
			return cookies.ValidationResult{
				Reason: cookies.ReasonCorruptStore,
				Error:  "cookie record could not be decoded",
				Method: cookies.MethodExpiryOnly,
			}
		}
		return cookies.ValidationResult{
			Reason: cookies.ReasonNoCookies,
			Error:  "no cookies stored",
			Method: cookies.MethodExpiryOnly,
		}
	}
	return ls.analyzer.Analyze(set)
}

// CheckLogin runs the live probe against the stored cookies without ever
// falling back to a credential login.
func (ls *LoginService) CheckLogin(ctx context.Context, email string) cookies.ValidationResult {
	accountKey := accounts.Key(email)

	release := ls.locks.acquire(accountKey)
	defer release()

	set, err := ls.repos.Cookies.Load(accountKey)
	if err != nil {
		result := ls.Status(email)
		result.Method = cookies.MethodLiveProbe
		return result
	}
	return ls.validator.Validate(ctx, set)
}

// loginLocked is the state machine body. The account lock must be held.
func (ls *LoginService) loginLocked(ctx context.Context, accountKey, email, password string) (Outcome, error) {
	outcome := Outcome{
		AttemptID:  uuid.New().String(),
		AccountKey: accountKey,
		Email:      email,
	}

	set, err := ls.repos.Cookies.Load(accountKey)
	switch {
	case err == nil:
		result := ls.analyzer.Analyze(set)
		if !result.IsValid {
			// Stale record: delete and fall back to a full login.
			if err := ls.repos.Cookies.Delete(accountKey); err != nil {
				return outcome, errors.Wrap(err, "[LoginService.loginLocked] delete stale record")
			}
			set = nil
			break
		}

		// A set persisted moments ago (typically by the request that held
		// this lock before us) is trusted without probing again.
		if ls.nowTime().Sub(set.SavedAt) < ls.settings.ProbeGrace {
			outcome.Succeeded = true
			outcome.LoggedIn = true
			outcome.SkippedLogin = true
			outcome.CookieCount = len(set.Cookies)
			return outcome, nil
		}

		probe := ls.validator.Validate(ctx, set)
		if probe.IsValid {
			outcome.Succeeded = true
			outcome.LoggedIn = true
			outcome.SkippedLogin = true
			outcome.CookieCount = len(set.Cookies)
			return outcome, nil
		}

		// Valid by expiry but rejected by the marketplace (revoked
		// server-side, or acceptance logic changed): full login, keeping
		// the stale cookies around to pre-seed the browser.
		log.Info().Str("account", accountKey).Msg("probe failed despite unexpired cookies, falling back to full login")

	case errors.Is(err, cookies.NotFoundErr):
		set = nil

	case errors.Is(err, cookies.CorruptRecordErr):
		if err := ls.repos.Cookies.Delete(accountKey); err != nil {
			return outcome, errors.Wrap(err, "[LoginService.loginLocked] delete corrupt record")
		}
		set = nil

	default:
		return outcome, errors.Wrap(err, "[LoginService.loginLocked] load cookies")
	}

	return ls.fullLogin(ctx, outcome, accountKey, email, password, set)
}

// fullLogin drives the credential login through the browser. It always
// returns a structured outcome; browser failures fold into reason codes.
//
// A missing credential form is treated as "possibly already logged in" and
// the flow proceeds to the authenticated-marker check instead of failing.
// That is a policy choice inherited from the marketplace's habit of
// silently accepting existing sessions, not a correctness guarantee.
func (ls *LoginService) fullLogin(ctx context.Context, outcome Outcome, accountKey, email, password string, stale *cookies.CookieSet) (Outcome, error) {
	password, err := ls.resolvePassword(accountKey, password)
	if err != nil {
		return outcome, err
	}
	if password == "" {
		outcome.Reason = ReasonMissingCredentials
		return outcome, nil
	}

	session, err := ls.browser.Connect(ctx, ls.settings.Endpoint)
	if err != nil {
		log.Error().Err(err).Str("account", accountKey).Msg("browser connect failed")
		outcome.Reason = ReasonAutomationTimeout
		return outcome, nil
	}
	defer func() { _ = session.Close() }()

	page, err := session.NewPage(ctx)
	if err != nil {
		log.Error().Err(err).Str("account", accountKey).Msg("browser page failed")
		outcome.Reason = ReasonAutomationTimeout
		return outcome, nil
	}
	defer func() { _ = page.Close() }()

	// Pre-seeding stale cookies is harmless and may carry anti-bot state
	// the marketplace still honors.
	if stale != nil {
		if err := page.SetCookies(ctx, stale.Cookies); err != nil {
			log.Warn().Err(err).Str("account", accountKey).Msg("cookie pre-seed failed")
		}
	}

	if out := page.Navigate(ctx, ls.settings.LoginURL, ls.settings.NavigationTimeout); !out.OK() {
		log.Warn().Err(out.Err).Str("account", accountKey).Msg("login page navigation failed")
		outcome.Reason = ReasonAutomationTimeout
		return outcome, nil
	}

	// Consent banner, best effort.
	if out := page.WaitForSelector(ctx, ls.settings.GDPRSelector, ls.settings.BannerTimeout); out.OK() {
		_ = page.Click(ctx, ls.settings.GDPRSelector)
	}

	form := page.WaitForSelector(ctx, ls.settings.EmailSelector, ls.settings.FormTimeout)
	switch form.Status {
	case browser.StepOK:
		if !ls.submitCredentials(ctx, page, email, password) {
			outcome.Reason = ReasonAutomationTimeout
			outcome.CookieCount, err = ls.persistCookies(ctx, page, accountKey, email)
			return outcome, err
		}
		outcome.DidSubmitCredentials = true
		// Let the submission settle before checking the marker.
		_ = page.WaitForSelector(ctx, ls.settings.EmailSelector, ls.settings.BannerTimeout)

	case browser.StepSelectorMissing, browser.StepTimedOut:
		log.Info().Str("account", accountKey).Msg("credential form absent, checking whether a session already exists")

	default:
		outcome.Reason = ReasonAutomationTimeout
		outcome.CookieCount, err = ls.persistCookies(ctx, page, accountKey, email)
		return outcome, err
	}

	loggedIn, authErr := page.IsAuthenticated(ctx)
	if authErr != nil {
		log.Warn().Err(authErr).Str("account", accountKey).Msg("authenticated-marker check failed")
		loggedIn = false
	}
	outcome.LoggedIn = loggedIn

	// Persist whatever the browser holds now, success or not: even a
	// failed attempt may have produced usable anti-bot cookies for a retry.
	outcome.CookieCount, err = ls.persistCookies(ctx, page, accountKey, email)
	if err != nil {
		return outcome, err
	}

	if loggedIn {
		outcome.Succeeded = true
		return outcome, nil
	}

	if required, reason, promptErr := page.VerificationPrompt(ctx); promptErr == nil && required {
		return ls.handleVerification(ctx, outcome, page, accountKey, email, reason)
	}

	outcome.Reason = ReasonLoginFailed
	return outcome, nil
}

// submitCredentials fills and submits the login form. Returns false if any
// step failed.
func (ls *LoginService) submitCredentials(ctx context.Context, page browser.Page, email, password string) bool {
	if out := page.Fill(ctx, ls.settings.EmailSelector, email); !out.OK() {
		return false
	}
	if out := page.Fill(ctx, ls.settings.PasswordSelector, password); !out.OK() {
		return false
	}
	return page.Click(ctx, ls.settings.SubmitSelector).OK()
}

// handleVerification reacts to the marketplace's secondary confirmation
// step. With a configured collaborator the verification runs inline and the
// marker is re-checked; otherwise the outcome reports the required action.
func (ls *LoginService) handleVerification(ctx context.Context, outcome Outcome, page browser.Page, accountKey, email, reason string) (Outcome, error) {
	if ls.verifier != nil {
		result := ls.verifier.Verify(ctx, accountKey, ls.settings.VerificationTimeout)
		if result.Success {
			if loggedIn, err := page.IsAuthenticated(ctx); err == nil && loggedIn {
				outcome.LoggedIn = true
				outcome.Succeeded = true
				count, err := ls.persistCookies(ctx, page, accountKey, email)
				if err != nil {
					return outcome, err
				}
				outcome.CookieCount = count
				return outcome, nil
			}
		}
		if result.Reason != "" {
			reason = result.Reason
		}
	}

	outcome.RequiresEmailVerification = true
	outcome.VerificationReason = reason
	outcome.Reason = ReasonVerificationRequired
	return outcome, nil
}

// persistCookies replaces the stored record with whatever the browser holds.
func (ls *LoginService) persistCookies(ctx context.Context, page browser.Page, accountKey, email string) (int, error) {
	cs, err := page.Cookies(ctx)
	if err != nil {
		log.Warn().Err(err).Str("account", accountKey).Msg("reading browser cookies failed")
		return 0, nil
	}
	if len(cs) == 0 {
		return 0, nil
	}

	set := &cookies.CookieSet{
		AccountKey: accountKey,
		Email:      email,
		SavedAt:    ls.nowTime(),
		Cookies:    cs,
	}
	if err := ls.repos.Cookies.Save(accountKey, set); err != nil {
		return 0, errors.Wrap(err, "[LoginService.persistCookies] save")
	}
	return len(cs), nil
}

// ensureAccount creates the account on first contact and seals a newly
// supplied password into the credential record.
func (ls *LoginService) ensureAccount(accountKey, email, password string) error {
	account, err := ls.repos.Accounts.Get(accountKey)
	if err != nil {
		if !errors.Is(err, accounts.NotFoundErr) {
			return errors.Wrap(err, "[LoginService.ensureAccount] get")
		}
		account = &accounts.Account{
			Key:       accountKey,
			Email:     email,
			CreatedAt: ls.nowTime(),
		}
	}

	if password != "" {
		sealed, err := ls.vault.Seal(password)
		if err != nil {
			return errors.Wrap(err, "[LoginService.ensureAccount] seal password")
		}
		account.SealedPassword = sealed
	}

	account.UpdatedAt = ls.nowTime()
	return errors.Wrap(ls.repos.Accounts.Upsert(account), "[LoginService.ensureAccount] upsert")
}

// resolvePassword falls back to the stored sealed credential when the
// caller did not supply one.
func (ls *LoginService) resolvePassword(accountKey, password string) (string, error) {
	if password != "" {
		return password, nil
	}

	account, err := ls.repos.Accounts.Get(accountKey)
	if err != nil {
		if errors.Is(err, accounts.NotFoundErr) {
			return "", nil
		}
		return "", errors.Wrap(err, "[LoginService.resolvePassword] get account")
	}
	if len(account.SealedPassword) == 0 {
		return "", nil
	}

	opened, err := ls.vault.Open(account.SealedPassword)
	if err != nil {
		// A credential sealed under a different vault secret is as good as
		// absent; the outcome becomes MISSING_CREDENTIALS.
		log.Warn().Err(err).Str("account", accountKey).Msg("stored credential could not be opened")
		return "", nil
	}
	return opened, nil
}
