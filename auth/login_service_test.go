package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	accountfakes "github.com/EinMelih/kleinanzeigen-auth/accounts/repofakes"
	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/browser/browserfakes"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	cookiefakes "github.com/EinMelih/kleinanzeigen-auth/cookies/repofakes"
	"github.com/EinMelih/kleinanzeigen-auth/mailverify"
)

const (
	testEmail    = "john.doe@example.com"
	testKey      = "john_doe_example_com"
	testPassword = "password123"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type testFixture struct {
	cookieRepo  *cookiefakes.FakeCookieRepo
	accountRepo *accountfakes.FakeAccountRepo
	browser     *browserfakes.FakeBrowser
	service     *auth.LoginService
}

func setupTestFixture(t *testing.T, options ...auth.LoginServiceOption) *testFixture {
	t.Helper()

	cr := cookiefakes.NewFakeCookieRepo()
	ar := accountfakes.NewFakeAccountRepo()
	fb := browserfakes.NewFakeBrowser()

	vault, err := accounts.NewVault("test-vault-secret")
	require.NoError(t, err)

	opts := append([]auth.LoginServiceOption{
		auth.WithNowTime(func() time.Time { return testNow }),
	}, options...)

	service, err := auth.NewLoginService(
		auth.Repos{Cookies: cr, Accounts: ar},
		fb,
		vault,
		opts...,
	)
	require.NoError(t, err)

	return &testFixture{cookieRepo: cr, accountRepo: ar, browser: fb, service: service}
}

func validCookieSet(savedAt time.Time) *cookies.CookieSet {
	return &cookies.CookieSet{
		AccountKey: testKey,
		Email:      testEmail,
		SavedAt:    savedAt,
		Cookies: []cookies.Cookie{
			{Name: "access_token", Value: "v", Expires: testNow.Add(24 * time.Hour)},
		},
	}
}

func TestLoginSkipsWithValidCookiesAndPassingProbe(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoggedIn = true
	require.NoError(t, f.cookieRepo.Save(testKey, validCookieSet(testNow.Add(-time.Hour))))

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.SkippedLogin)
	require.True(t, outcome.LoggedIn)
	require.False(t, outcome.DidSubmitCredentials)

	// The live probe visits the home page only; the login page is never
	// touched and no credentials are filled.
	require.False(t, f.browser.SubmittedCredentials())
	require.Empty(t, f.browser.Fills)
	for _, url := range f.browser.Navigations {
		require.NotContains(t, url, "einloggen")
	}
}

func TestLoginTrustsFreshlyPersistedCookiesWithoutProbe(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.cookieRepo.Save(testKey, validCookieSet(testNow.Add(-10*time.Second))))

	outcome, err := f.service.Login(context.Background(), testEmail, "")
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.SkippedLogin)
	require.Equal(t, 0, f.browser.ConnectCalls)
}

func TestLoginMissingCredentials(t *testing.T) {
	f := setupTestFixture(t)

	outcome, err := f.service.Login(context.Background(), testEmail, "")
	require.NoError(t, err)

	require.False(t, outcome.Succeeded)
	require.Equal(t, auth.ReasonMissingCredentials, outcome.Reason)
	require.Equal(t, 0, f.browser.ConnectCalls)
	require.Equal(t, 0, f.browser.NewPageCalls)
}

func TestLoginFullLoginPersistsCookies(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = true
	f.browser.PageCookies = []cookies.Cookie{
		{Name: "access_token", Value: "fresh", Expires: testNow.Add(2 * time.Hour)},
		{Name: "session_id", Value: "sid", Session: true},
	}

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.LoggedIn)
	require.True(t, outcome.DidSubmitCredentials)
	require.False(t, outcome.SkippedLogin)
	require.Equal(t, 2, outcome.CookieCount)

	saved, err := f.cookieRepo.Load(testKey)
	require.NoError(t, err)
	require.Len(t, saved.Cookies, 2)
	require.Equal(t, testNow, saved.SavedAt)
}

func TestLoginFailedAttemptStillPersistsCookies(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = false
	f.browser.PageCookies = []cookies.Cookie{
		{Name: "anti_bot", Value: "token", Expires: testNow.Add(time.Hour)},
	}

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.False(t, outcome.Succeeded)
	require.Equal(t, auth.ReasonLoginFailed, outcome.Reason)
	require.True(t, outcome.DidSubmitCredentials)
	require.True(t, f.cookieRepo.Has(testKey))
}

func TestLoginDeletesStaleRecordBeforeFullLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = true
	f.browser.PageCookies = []cookies.Cookie{{Name: "access_token", Value: "v", Expires: testNow.Add(time.Hour)}}

	expired := &cookies.CookieSet{
		AccountKey: testKey,
		Cookies:    []cookies.Cookie{{Name: "old", Expires: testNow.Add(-time.Hour)}},
	}
	require.NoError(t, f.cookieRepo.Save(testKey, expired))
	f.cookieRepo.DeleteCalls = 0

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.DidSubmitCredentials)
	require.Equal(t, 1, f.cookieRepo.DeleteCalls)
}

func TestLoginDeletesCorruptRecordBeforeFullLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = true
	f.cookieRepo.MarkCorrupt(testKey)

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.Equal(t, 1, f.cookieRepo.DeleteCalls)
}

func TestLoginProbeFailureFallsBackToFullLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoggedIn = false // probe rejects the unexpired cookies
	f.browser.LoginSucceeds = true
	f.browser.PageCookies = []cookies.Cookie{{Name: "access_token", Value: "v", Expires: testNow.Add(time.Hour)}}
	require.NoError(t, f.cookieRepo.Save(testKey, validCookieSet(testNow.Add(-time.Hour))))

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.DidSubmitCredentials)
	// One session for the probe, one for the full login.
	require.Equal(t, 2, f.browser.ConnectCalls)
}

func TestLoginMissingFormChecksExistingSession(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoggedIn = true
	f.browser.PageCookies = []cookies.Cookie{{Name: "access_token", Value: "v", Expires: testNow.Add(time.Hour)}}
	f.browser.Hide("#login-email")

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.LoggedIn)
	require.False(t, outcome.DidSubmitCredentials)
	require.False(t, f.browser.SubmittedCredentials())
}

func TestLoginVerificationRequired(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = false
	f.browser.NeedsVerification = true
	f.browser.VerificationReason = "EMAIL_CONFIRMATION"

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.False(t, outcome.Succeeded)
	require.True(t, outcome.RequiresEmailVerification)
	require.Equal(t, "EMAIL_CONFIRMATION", outcome.VerificationReason)
	require.Equal(t, auth.ReasonVerificationRequired, outcome.Reason)
}

type fakeVerifier struct {
	lock   sync.Mutex
	calls  int
	result mailverify.Result
}

func (v *fakeVerifier) Verify(_ context.Context, _ string, _ time.Duration) mailverify.Result {
	v.lock.Lock()
	defer v.lock.Unlock()

	v.calls++
	return v.result
}

func TestLoginVerificationInvokesCollaborator(t *testing.T) {
	verifier := &fakeVerifier{result: mailverify.Result{Success: false, Reason: "NO_VERIFICATION_MAIL"}}
	f := setupTestFixture(t, auth.WithVerifier(verifier))
	f.browser.NeedsVerification = true
	f.browser.VerificationReason = "EMAIL_CONFIRMATION"

	outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	require.Equal(t, 1, verifier.calls)
	require.True(t, outcome.RequiresEmailVerification)
	require.Equal(t, "NO_VERIFICATION_MAIL", outcome.VerificationReason)
}

func TestLoginSameAccountSerialized(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = true
	f.browser.PageCookies = []cookies.Cookie{
		{Name: "access_token", Value: "v", Expires: testNow.Add(2 * time.Hour)},
	}

	var wg sync.WaitGroup
	outcomes := make([]auth.Outcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := f.service.Login(context.Background(), testEmail, testPassword)
			require.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	// The first request performs the full login; the second waits on the
	// account lock, re-reads the freshly persisted cookies and skips its
	// own browser session entirely.
	require.Equal(t, 1, f.browser.ConnectCalls)
	require.True(t, outcomes[0].Succeeded)
	require.True(t, outcomes[1].Succeeded)
	require.True(t, outcomes[0].SkippedLogin || outcomes[1].SkippedLogin)
}

func TestLoginDifferentAccountsProceedIndependently(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = true
	f.browser.PageCookies = []cookies.Cookie{
		{Name: "access_token", Value: "v", Expires: testNow.Add(2 * time.Hour)},
	}

	var wg sync.WaitGroup
	emails := []string{"first@example.com", "second@example.com"}
	for _, email := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			outcome, err := f.service.Login(context.Background(), email, testPassword)
			require.NoError(t, err)
			require.True(t, outcome.Succeeded)
		}(email)
	}
	wg.Wait()

	require.Equal(t, 2, f.browser.ConnectCalls)
}

func TestRefreshUsesStoredCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.browser.LoginSucceeds = true
	f.browser.PageCookies = []cookies.Cookie{{Name: "access_token", Value: "v", Expires: testNow.Add(time.Hour)}}

	// First login stores the sealed password.
	_, err := f.service.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.cookieRepo.Delete(testKey))
	f.browser.ConnectCalls = 0

	outcome, err := f.service.Refresh(context.Background(), testKey)
	require.NoError(t, err)

	require.True(t, outcome.Succeeded)
	require.True(t, outcome.DidSubmitCredentials)
	require.Equal(t, testPassword, f.browser.Fills["#login-password"])
}

func TestStatusReportsReasonCodes(t *testing.T) {
	f := setupTestFixture(t)

	result := f.service.Status(testEmail)
	require.False(t, result.IsValid)
	require.Equal(t, cookies.ReasonNoCookies, result.Reason)

	f.cookieRepo.MarkCorrupt(testKey)
	result = f.service.Status(testEmail)
	require.False(t, result.IsValid)
	require.Equal(t, cookies.ReasonCorruptStore, result.Reason)

	require.NoError(t, f.cookieRepo.Save(testKey, validCookieSet(testNow)))
	result = f.service.Status(testEmail)
	require.True(t, result.IsValid)
	require.Equal(t, cookies.MethodExpiryOnly, result.Method)
}
