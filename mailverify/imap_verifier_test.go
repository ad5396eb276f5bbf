package mailverify

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// An address nothing listens on, so dialing fails immediately.
const unreachableAddr = "127.0.0.1:1"

func TestNewIMAPVerifierRequiresMailbox(t *testing.T) {
	_, err := NewIMAPVerifier("", "user@example.com", "kleinanzeigen.de", WithPassword("pw"))
	require.Error(t, err)

	_, err = NewIMAPVerifier("imap.example.com:993", "", "kleinanzeigen.de", WithPassword("pw"))
	require.Error(t, err)
}

func TestNewIMAPVerifierRequiresCredentials(t *testing.T) {
	_, err := NewIMAPVerifier("imap.example.com:993", "user@example.com", "kleinanzeigen.de")
	require.Error(t, err)

	v, err := NewIMAPVerifier("imap.example.com:993", "user@example.com", "kleinanzeigen.de", WithPassword("pw"))
	require.NoError(t, err)
	require.NotNil(t, v)
}

func TestDefaultLinkPatternExtractsConfirmationLink(t *testing.T) {
	body := []byte(`<p>Bitte bestaetigen:</p>
<a href="https://www.kleinanzeigen.de/m-bestaetigung.html?token=abc123">Link</a>`)

	match := defaultLinkPattern.Find(body)
	require.Equal(t, "https://www.kleinanzeigen.de/m-bestaetigung.html?token=abc123", string(match))
}

func TestDefaultLinkPatternIgnoresOtherHosts(t *testing.T) {
	body := []byte(`visit https://example.com/phish now`)
	require.Nil(t, defaultLinkPattern.Find(body))
}

func TestWithLinkPatternOverridesDefault(t *testing.T) {
	custom := regexp.MustCompile(`https://other\.example/[a-z]+`)
	v, err := NewIMAPVerifier(unreachableAddr, "user@example.com", "kleinanzeigen.de",
		WithPassword("pw"), WithLinkPattern(custom))
	require.NoError(t, err)
	require.Same(t, custom, v.linkPattern)
}

func TestVerifyTimesOutWithoutMail(t *testing.T) {
	v, err := NewIMAPVerifier(unreachableAddr, "user@example.com", "kleinanzeigen.de",
		WithPassword("pw"), WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	result := v.Verify(context.Background(), "account", 0)

	require.False(t, result.Success)
	require.Equal(t, "NO_VERIFICATION_MAIL", result.Reason)
}

func TestVerifyReportsCancellation(t *testing.T) {
	v, err := NewIMAPVerifier(unreachableAddr, "user@example.com", "kleinanzeigen.de",
		WithPassword("pw"), WithPollInterval(time.Minute))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := v.Verify(ctx, "account", time.Hour)

	require.False(t, result.Success)
	require.Equal(t, "CANCELLED", result.Reason)
}
