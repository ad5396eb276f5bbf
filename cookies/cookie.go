package cookies

import "time"

// Cookie is a single browser cookie captured from a marketplace session.
// Expires is the zero time for session-scoped cookies (no explicit expiry).
type Cookie struct {
	Name     string    `json:"name"`               // Unique within domain+path
	Value    string    `json:"value"`              // Opaque, may embed a signed token
	Domain   string    `json:"domain,omitempty"`   // Cookie domain
	Path     string    `json:"path,omitempty"`     // Cookie path
	Secure   bool      `json:"secure,omitempty"`   // Secure flag
	HTTPOnly bool      `json:"httpOnly,omitempty"` // HttpOnly flag
	Session  bool      `json:"session,omitempty"`  // True for session-scoped cookies
	Expires  time.Time `json:"expires,omitempty"`  // Absolute expiry, zero if session-scoped
}

// SessionScoped reports whether the cookie has no usable absolute expiry.
func (c Cookie) SessionScoped() bool {
	return c.Session || c.Expires.IsZero()
}

// CookieSet is the full cookie collection representing one account's
// authenticated session. Sets are replaced whole on save, never merged.
type CookieSet struct {
	AccountKey string    `json:"accountKey"`        // Normalized account key
	Email      string    `json:"email,omitempty"`   // Original email address
	SavedAt    time.Time `json:"savedAt,omitempty"` // When the set was persisted
	Cookies    []Cookie  `json:"cookies"`
}

// IsEmpty reports whether the set holds no cookies at all.
func (cs *CookieSet) IsEmpty() bool {
	return cs == nil || len(cs.Cookies) == 0
}
