package cookies

// Repo is the cookie persistence contract: a keyed blob store holding at
// most one CookieSet per account. Save replaces the whole record.
type Repo interface {
	// Load retrieves the cookie set for an account.
	// Returns NotFoundErr if no record exists and CorruptRecordErr if the
	// stored record cannot be decoded (caller may choose to delete it).
	Load(accountKey string) (*CookieSet, error)

	// Save persists the cookie set for an account, replacing any existing record.
	Save(accountKey string, set *CookieSet) error

	// Delete removes the record for an account. Deleting a missing record is not an error.
	Delete(accountKey string) error

	// ListAccounts returns the keys of all accounts with a persisted record.
	ListAccounts() ([]string, error)
}
