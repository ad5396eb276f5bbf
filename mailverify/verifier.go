// Package mailverify resolves the marketplace's secondary e-mail
// confirmation step: it watches the account's mailbox for the confirmation
// message and extracts the verification link. The login core treats it as
// a black box returning pass/fail.
package mailverify

import (
	"context"
	"time"
)

// Result is the outcome of one verification attempt.
type Result struct {
	Success          bool   `json:"success"`
	VerificationLink string `json:"verificationLink,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// Verifier is the collaborator contract the login core consumes.
type Verifier interface {
	Verify(ctx context.Context, accountKey string, timeout time.Duration) Result
}
