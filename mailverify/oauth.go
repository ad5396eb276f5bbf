package mailverify

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Issuers for the two mail providers the marketplace accounts typically
// live on. Both publish OIDC discovery documents, so the token endpoint is
// resolved instead of hard-coded.
const (
	GoogleIssuer    = "https://accounts.google.com"
	MicrosoftIssuer = "https://login.microsoftonline.com/common/v2.0"
)

// MailTokenSource builds an auto-refreshing OAuth2 token source for IMAP
// access from a long-lived refresh token. The provider's endpoints come
// from OIDC discovery on the issuer.
func MailTokenSource(ctx context.Context, issuer, clientID, clientSecret, refreshToken string, scopes []string) (oauth2.TokenSource, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "[MailTokenSource] discover %s", issuer)
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}), nil
}
