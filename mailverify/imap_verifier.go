package mailverify

import (
	"context"
	"io"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ Verifier = (*IMAPVerifier)(nil)

// The marketplace's confirmation mails carry a single https link back to
// its own domain.
var defaultLinkPattern = regexp.MustCompile(`https://www\.kleinanzeigen\.de/[^\s"'<>]+`)

const (
	defaultPollInterval = 10 * time.Second
	mailLookback        = 15 * time.Minute
)

// IMAPVerifier polls a mailbox over IMAP until the marketplace confirmation
// mail arrives. Authentication is OAUTHBEARER when a token source is
// configured, password LOGIN otherwise.
type IMAPVerifier struct {
	addr         string
	username     string
	password     string
	tokens       oauth2.TokenSource
	sender       string
	linkPattern  *regexp.Regexp
	pollInterval time.Duration
	nowTime      func() time.Time
}

// IMAPOption modifies an IMAPVerifier instance.
type IMAPOption func(*IMAPVerifier)

// WithPassword authenticates with a plain mailbox password.
func WithPassword(password string) IMAPOption {
	return func(v *IMAPVerifier) {
		v.password = password
	}
}

// WithTokenSource authenticates with OAUTHBEARER using the token source.
func WithTokenSource(tokens oauth2.TokenSource) IMAPOption {
	return func(v *IMAPVerifier) {
		v.tokens = tokens
	}
}

// WithLinkPattern overrides the verification link pattern.
func WithLinkPattern(pattern *regexp.Regexp) IMAPOption {
	return func(v *IMAPVerifier) {
		v.linkPattern = pattern
	}
}

// WithPollInterval overrides the mailbox polling interval.
func WithPollInterval(interval time.Duration) IMAPOption {
	return func(v *IMAPVerifier) {
		v.pollInterval = interval
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) IMAPOption {
	return func(v *IMAPVerifier) {
		v.nowTime = nowFunc
	}
}

// NewIMAPVerifier creates a verifier for one mailbox. addr is host:port of
// the IMAPS endpoint, sender the expected From address of the confirmation
// mail.
func NewIMAPVerifier(addr, username, sender string, options ...IMAPOption) (*IMAPVerifier, error) {
	if addr == "" || username == "" {
		return nil, errors.New("[NewIMAPVerifier] addr and username are required")
	}

	v := &IMAPVerifier{
		addr:         addr,
		username:     username,
		sender:       sender,
		linkPattern:  defaultLinkPattern,
		pollInterval: defaultPollInterval,
		nowTime:      time.Now,
	}
	for _, opt := range options {
		opt(v)
	}

	if v.password == "" && v.tokens == nil {
		return nil, errors.New("[NewIMAPVerifier] either a password or a token source is required")
	}
	return v, nil
}

// Verify polls the mailbox until the confirmation mail shows up or the
// timeout elapses. It never returns an error: failures fold into the result.
func (v *IMAPVerifier) Verify(ctx context.Context, accountKey string, timeout time.Duration) Result {
	deadline := v.nowTime().Add(timeout)

	for {
		link, err := v.checkOnce()
		if err != nil {
			log.Warn().Err(err).Str("account", accountKey).Msg("mailbox check failed")
		}
		if link != "" {
			return Result{Success: true, VerificationLink: link}
		}

		if v.nowTime().After(deadline) {
			return Result{Success: false, Reason: "NO_VERIFICATION_MAIL"}
		}

		select {
		case <-ctx.Done():
			return Result{Success: false, Reason: "CANCELLED"}
		case <-time.After(v.pollInterval):
		}
	}
}

// checkOnce opens a fresh IMAP connection and scans recent mail from the
// marketplace for a verification link.
func (v *IMAPVerifier) checkOnce() (string, error) {
	c, err := imapclient.DialTLS(v.addr, nil)
	if err != nil {
		return "", errors.Wrap(err, "[IMAPVerifier.checkOnce] dial")
	}
	defer func() { _ = c.Logout() }()

	if err := v.authenticate(c); err != nil {
		return "", err
	}

	if _, err := c.Select("INBOX", true); err != nil {
		return "", errors.Wrap(err, "[IMAPVerifier.checkOnce] select inbox")
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = v.nowTime().Add(-mailLookback)
	if v.sender != "" {
		criteria.Header.Add("From", v.sender)
	}

	ids, err := c.Search(criteria)
	if err != nil {
		return "", errors.Wrap(err, "[IMAPVerifier.checkOnce] search")
	}
	if len(ids) == 0 {
		return "", nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var link string
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		if m := v.linkPattern.Find(data); m != nil {
			link = string(m)
		}
	}

	if err := <-done; err != nil {
		return "", errors.Wrap(err, "[IMAPVerifier.checkOnce] fetch")
	}
	return link, nil
}

func (v *IMAPVerifier) authenticate(c *imapclient.Client) error {
	if v.tokens == nil {
		return errors.Wrap(c.Login(v.username, v.password), "[IMAPVerifier.authenticate] login")
	}

	token, err := v.tokens.Token()
	if err != nil {
		return errors.Wrap(err, "[IMAPVerifier.authenticate] token source")
	}

	host, portStr, err := net.SplitHostPort(v.addr)
	if err != nil {
		return errors.Wrap(err, "[IMAPVerifier.authenticate] split addr")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return errors.Wrap(err, "[IMAPVerifier.authenticate] parse port")
	}

	saslClient := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: v.username,
		Token:    token.AccessToken,
		Host:     host,
		Port:     port,
	})
	return errors.Wrap(c.Authenticate(saslClient), "[IMAPVerifier.authenticate] oauthbearer")
}
