package cookies

import (
	"encoding/json"
	"time"
)

// ValidationMethod records how a validation result was produced.
type ValidationMethod string

const (
	// MethodExpiryOnly means the result came from stored expiry metadata alone.
	MethodExpiryOnly ValidationMethod = "expiry-only"
	// MethodLiveProbe means the result came from loading a page with the cookies.
	MethodLiveProbe ValidationMethod = "live-probe"
)

// Cookies without an absolute expiry are treated as valid for a fixed
// conservative horizon, since "until the browser closes" is unobservable
// when no browser process persists server-side.
const sessionCookieHorizon = 365 * 24 * time.Hour

const secondsPerDay = 86400

// ValidationResult is derived from a CookieSet on every query and never
// cached. IsValid is true iff at least one cookie is not expired.
type ValidationResult struct {
	IsValid     bool             `json:"isValid"`
	Reason      string           `json:"reason,omitempty"` // NO_COOKIES | CORRUPT_STORE
	Error       string           `json:"error,omitempty"`  // Human-readable, e.g. "All cookies expired"
	CookieCount int              `json:"cookieCount"`
	NextExpiry  time.Time        `json:"nextExpiry,omitempty"` // Min effective expiry among non-expired cookies
	Method      ValidationMethod `json:"validationMethod"`
	Cookies     []CookieDetail   `json:"cookies,omitempty"`
}

// CookieDetail is the per-cookie breakdown inside a ValidationResult.
type CookieDetail struct {
	Name            string    `json:"name"`
	Domain          string    `json:"domain,omitempty"`
	Session         bool      `json:"session,omitempty"`
	Expired         bool      `json:"expired"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty"` // Effective expiry (synthetic for session cookies)
	DaysUntilExpiry int       `json:"daysUntilExpiry,omitempty"`
}

// Analyzer computes cookie validity from expiry metadata alone. It performs
// no I/O and keeps no state beyond the injected clock, so calling Analyze
// twice on the same input yields identical output.
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

// Analyze computes a ValidationResult for a cookie set. A nil or empty set
// is invalid with reason NO_COOKIES.
func (a *Analyzer) Analyze(set *CookieSet) ValidationResult {
	if set.IsEmpty() {
		return ValidationResult{
			IsValid: false,
			Reason:  ReasonNoCookies,
			Error:   "no cookies stored",
			Method:  MethodExpiryOnly,
		}
	}

	now := a.nowTime()
	result := ValidationResult{
		CookieCount: len(set.Cookies),
		Method:      MethodExpiryOnly,
		Cookies:     make([]CookieDetail, 0, len(set.Cookies)),
	}

	for _, c := range set.Cookies {
		effectiveExpiry := c.Expires
		if c.SessionScoped() {
			effectiveExpiry = now.Add(sessionCookieHorizon)
		}

		detail := CookieDetail{
			Name:      c.Name,
			Domain:    c.Domain,
			Session:   c.SessionScoped(),
			ExpiresAt: effectiveExpiry,
		}

		if !effectiveExpiry.After(now) {
			detail.Expired = true
			result.Cookies = append(result.Cookies, detail)
			continue
		}

		detail.DaysUntilExpiry = daysUntil(now, effectiveExpiry)
		result.IsValid = true
		if result.NextExpiry.IsZero() || effectiveExpiry.Before(result.NextExpiry) {
			result.NextExpiry = effectiveExpiry
		}
		result.Cookies = append(result.Cookies, detail)
	}

	if !result.IsValid {
		result.Error = "All cookies expired"
	}

	return result
}

// AnalyzeRaw decodes a raw stored record and analyzes it. Malformed JSON is
// invalid with reason CORRUPT_STORE; empty data is invalid with NO_COOKIES.
// The caller may choose to delete a corrupt record.
func (a *Analyzer) AnalyzeRaw(data []byte) ValidationResult {
	if len(data) == 0 {
		return ValidationResult{
			IsValid: false,
			Reason:  ReasonNoCookies,
			Error:   "no cookies stored",
			Method:  MethodExpiryOnly,
		}
	}

	var set CookieSet
	if err := json.Unmarshal(data, &set); err != nil {
		return ValidationResult{
			IsValid: false,
			Reason:  ReasonCorruptStore,
			Error:   "cookie record could not be decoded",
			Method:  MethodExpiryOnly,
		}
	}

	return a.Analyze(&set)
}

// daysUntil returns ceil((expiry - now) / 86400s).
func daysUntil(now, expiry time.Time) int {
	seconds := int64(expiry.Sub(now) / time.Second)
	days := seconds / secondsPerDay
	if seconds%secondsPerDay != 0 {
		days++
	}
	return int(days)
}
