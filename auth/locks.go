package auth

import "sync"

// accountLocks serializes all cookie and browser work per account: at most
// one full login or live probe may be in flight for a given key. Callers
// wait with no timeout; the operations themselves carry network timeouts.
// Entries are never removed, the map is bounded by the number of accounts.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the account's lock is held and returns the release
// function.
func (a *accountLocks) acquire(accountKey string) func() {
	a.mu.Lock()
	lock, ok := a.locks[accountKey]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[accountKey] = lock
	}
	a.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
