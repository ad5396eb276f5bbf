package auth

// Outcome is the structured result of one login orchestration. The login
// service always returns an Outcome for expected conditions; only faults in
// the persistence layer surface as errors, and those are caught at the
// scheduler's per-account boundary.
type Outcome struct {
	AttemptID  string `json:"attemptId"`
	AccountKey string `json:"accountKey"`
	Email      string `json:"email"`

	Succeeded            bool `json:"succeeded"`
	LoggedIn             bool `json:"loggedIn"`
	DidSubmitCredentials bool `json:"didSubmitCredentials"`
	// SkippedLogin is true when valid stored cookies made any browser login
	// unnecessary; credentials were never touched.
	SkippedLogin bool `json:"skippedLogin"`

	CookieCount int    `json:"cookieCount"`
	Reason      string `json:"failureReason,omitempty"`

	RequiresEmailVerification bool   `json:"requiresEmailVerification,omitempty"`
	VerificationReason        string `json:"verificationReason,omitempty"`
}
