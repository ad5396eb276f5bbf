package accounts

import (
	"strings"
	"time"
)

// Account is a marketplace account the service manages sessions for.
// Accounts are created implicitly on the first login attempt and are only
// removed by cleanup.
type Account struct {
	Key            string    `json:"key"`                      // Normalized account key, see Key()
	Email          string    `json:"email"`                    // Original email address
	SealedPassword []byte    `json:"sealedPassword,omitempty"` // Vault-sealed marketplace password
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Key derives the normalized account key from an email address: lowercase,
// with runs of non-alphanumeric characters collapsed to a single underscore.
// The rule is deterministic so the key doubles as a storage filename.
func Key(email string) string {
	var b strings.Builder
	b.Grow(len(email))

	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(email)) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
