package accounts

import "errors"

var NotFoundErr = errors.New("account not found")

// Repo is the account persistence contract.
type Repo interface {
	// Get retrieves an account by its normalized key.
	// Returns NotFoundErr when the account does not exist.
	Get(key string) (*Account, error)

	// Upsert creates or replaces an account record.
	Upsert(account *Account) error

	// Delete removes an account. Deleting a missing account is not an error.
	Delete(key string) error

	// List returns all known accounts.
	List() ([]Account, error)
}
