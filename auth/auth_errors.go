package auth

// Reason codes carried on login outcomes. The core never raises errors for
// these conditions; the HTTP layer decides how each maps to a status code.
const (
	// ReasonMissingCredentials is terminal: no password is available while
	// the stored cookies are absent or invalid.
	ReasonMissingCredentials = "MISSING_CREDENTIALS"

	// ReasonSessionProbeFailed means the live probe could not confirm the
	// session; indistinguishable from "not logged in".
	ReasonSessionProbeFailed = "SESSION_PROBE_FAILED"

	// ReasonAutomationTimeout covers navigation and browser-layer failures;
	// recoverable on the next scheduled sweep.
	ReasonAutomationTimeout = "AUTOMATION_TIMEOUT"

	// ReasonVerificationRequired is a distinct terminal state, not a
	// failure: the marketplace demands an external confirmation step.
	ReasonVerificationRequired = "VERIFICATION_REQUIRED"

	// ReasonLoginFailed is the residual case: credentials were submitted
	// but the marketplace did not produce an authenticated session.
	ReasonLoginFailed = "LOGIN_FAILED"
)
