package tokens

import (
	"sort"
	"strings"
	"time"

	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Analyzer extracts token claims from cookie values. Tokens are never
// verified cryptographically: the payload is decoded unverified purely to
// read the exp claim, the same way an introspection endpoint peeks at
// claims before deciding which key to check with.
type Analyzer struct {
	nowTime func() time.Time
}

// AnalyzerOption modifies an Analyzer instance.
type AnalyzerOption func(*Analyzer)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.nowTime = nowFunc
	}
}

// NewAnalyzer creates an Analyzer with an optional injected clock.
func NewAnalyzer(options ...AnalyzerOption) *Analyzer {
	a := &Analyzer{nowTime: time.Now}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Analyze returns the token claims found in a cookie set, sorted with
// access claims before refresh claims and ascending by expiry within a
// kind. Cookies whose name matches neither kind are discarded.
func (a *Analyzer) Analyze(set *cookies.CookieSet) []Claim {
	if set.IsEmpty() {
		return nil
	}

	now := a.nowTime()
	claims := make([]Claim, 0, len(set.Cookies))

	for _, c := range set.Cookies {
		kind, ok := classify(c.Name)
		if !ok {
			continue
		}
		expiry, ok := tokenExpiry(c.Value)
		if !ok {
			continue
		}
		claims = append(claims, Claim{
			CookieName: c.Name,
			Kind:       kind,
			ExpiresAt:  expiry,
			IsExpired:  !expiry.After(now),
			Remaining:  FormatRemaining(now, expiry),
		})
	}

	sort.SliceStable(claims, func(i, j int) bool {
		if claims[i].Kind != claims[j].Kind {
			return claims[i].Kind == KindAccess
		}
		return claims[i].ExpiresAt.Before(claims[j].ExpiresAt)
	})

	return claims
}

func classify(cookieName string) (Kind, bool) {
	name := strings.ToLower(cookieName)
	switch {
	case strings.Contains(name, "access_token"):
		return KindAccess, true
	case strings.Contains(name, "refresh_token"):
		return KindRefresh, true
	}
	return "", false
}

// tokenExpiry decodes a candidate three-segment token value and returns the
// exp claim, if present and numeric.
func tokenExpiry(value string) (time.Time, bool) {
	if strings.Count(value, ".") != 2 {
		return time.Time{}, false
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(value, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return time.Time{}, false
	}

	expiry, err := mapClaims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}
