package cookies_test

import (
	"testing"
	"time"

	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer() *cookies.Analyzer {
	return cookies.NewAnalyzer(cookies.WithNowTime(func() time.Time { return testNow }))
}

func cookieSet(cs ...cookies.Cookie) *cookies.CookieSet {
	return &cookies.CookieSet{
		AccountKey: "john_doe_example_com",
		Email:      "john.doe@example.com",
		Cookies:    cs,
	}
}

func TestAnalyzeValidWhenAnyCookieUnexpired(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(cookieSet(
		cookies.Cookie{Name: "old", Expires: testNow.Add(-time.Hour)},
		cookies.Cookie{Name: "fresh", Expires: testNow.Add(48 * time.Hour)},
	))

	require.True(t, result.IsValid)
	require.Equal(t, 2, result.CookieCount)
	require.Equal(t, cookies.MethodExpiryOnly, result.Method)
	require.Equal(t, testNow.Add(48*time.Hour), result.NextExpiry)
}

func TestAnalyzeAllExpired(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(cookieSet(
		cookies.Cookie{Name: "a", Expires: testNow.Add(-time.Minute)},
		cookies.Cookie{Name: "b", Expires: testNow.Add(-24 * time.Hour)},
	))

	require.False(t, result.IsValid)
	require.Equal(t, "All cookies expired", result.Error)
	require.True(t, result.NextExpiry.IsZero())
	for _, detail := range result.Cookies {
		require.True(t, detail.Expired)
	}
}

func TestAnalyzeEmptySet(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(cookieSet())
	require.False(t, result.IsValid)
	require.Equal(t, cookies.ReasonNoCookies, result.Reason)

	result = analyzer.Analyze(nil)
	require.False(t, result.IsValid)
	require.Equal(t, cookies.ReasonNoCookies, result.Reason)
}

func TestAnalyzeSessionCookieHorizon(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(cookieSet(
		cookies.Cookie{Name: "sid", Session: true},
	))

	require.True(t, result.IsValid)
	require.Equal(t, testNow.Add(365*24*time.Hour), result.NextExpiry)
	require.Equal(t, 365, result.Cookies[0].DaysUntilExpiry)
	require.True(t, result.Cookies[0].Session)
}

func TestAnalyzeMissingExpiryTreatedAsSessionScoped(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(cookieSet(cookies.Cookie{Name: "sid"}))

	require.True(t, result.IsValid)
	require.True(t, result.Cookies[0].Session)
}

func TestAnalyzeDaysUntilExpiryRoundsUp(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.Analyze(cookieSet(
		cookies.Cookie{Name: "a", Expires: testNow.Add(25 * time.Hour)},
	))

	require.True(t, result.IsValid)
	require.Equal(t, 2, result.Cookies[0].DaysUntilExpiry)
}

func TestAnalyzeIdempotent(t *testing.T) {
	analyzer := newTestAnalyzer()
	set := cookieSet(
		cookies.Cookie{Name: "a", Expires: testNow.Add(time.Hour)},
		cookies.Cookie{Name: "b", Session: true},
	)

	first := analyzer.Analyze(set)
	second := analyzer.Analyze(set)

	require.Equal(t, first, second)
}

func TestAnalyzeRawCorruptRecord(t *testing.T) {
	analyzer := newTestAnalyzer()

	result := analyzer.AnalyzeRaw([]byte("{not json"))
	require.False(t, result.IsValid)
	require.Equal(t, cookies.ReasonCorruptStore, result.Reason)

	result = analyzer.AnalyzeRaw(nil)
	require.False(t, result.IsValid)
	require.Equal(t, cookies.ReasonNoCookies, result.Reason)
}
