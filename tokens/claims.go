package tokens

import "time"

// Kind classifies a token claim by the cookie it was extracted from.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claim is the decoded expiry information embedded in one cookie value.
// It is informational and reported separately from cookie-level expiry:
// a cookie with no native expiry may still carry a decodable token claim.
type Claim struct {
	CookieName string    `json:"cookieName"`
	Kind       Kind      `json:"kind"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IsExpired  bool      `json:"isExpired"`
	Remaining  string    `json:"remaining"` // e.g. "expires in 2d 3h 4m 5s"
}
