package config

type MailConfig interface {
	GetIMAPAddress() string
	GetIMAPAccount() string
	GetIMAPPassword() string
	GetMailOAuthIssuer() string
	GetMailOAuthClientID() string
	GetMailOAuthClientSecret() string
	GetMailOAuthRefreshToken() string
}

type Mail struct{}

var _ MailConfig = Mail{}

// GetIMAPAddress is the host:port of the mailbox that receives the
// marketplace's verification mails. Empty disables mail verification.
func (Mail) GetIMAPAddress() string {
	return GetEnv("IMAP_ADDRESS", "")
}

func (Mail) GetIMAPAccount() string {
	return GetEnv("IMAP_ACCOUNT", "")
}

func (Mail) GetIMAPPassword() string {
	return GetEnv("IMAP_PASSWORD", "")
}

// GetMailOAuthIssuer selects OAUTHBEARER instead of password login when
// set, e.g. https://accounts.google.com.
func (Mail) GetMailOAuthIssuer() string {
	return GetEnv("MAIL_OAUTH_ISSUER", "")
}

func (Mail) GetMailOAuthClientID() string {
	return GetEnv("MAIL_OAUTH_CLIENT_ID", "")
}

func (Mail) GetMailOAuthClientSecret() string {
	return GetEnv("MAIL_OAUTH_CLIENT_SECRET", "")
}

func (Mail) GetMailOAuthRefreshToken() string {
	return GetEnv("MAIL_OAUTH_REFRESH_TOKEN", "")
}
