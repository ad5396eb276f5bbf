package repofakes

import (
	"sync"

	"github.com/EinMelih/kleinanzeigen-auth/cookies"
)

var _ cookies.Repo = (*FakeCookieRepo)(nil)

type FakeCookieRepo struct {
	sets    map[string]*cookies.CookieSet
	corrupt map[string]bool
	lock    sync.RWMutex

	SaveCalls   int
	DeleteCalls int
}

func NewFakeCookieRepo() *FakeCookieRepo {
	return &FakeCookieRepo{
		sets:    make(map[string]*cookies.CookieSet),
		corrupt: make(map[string]bool),
	}
}

func (r *FakeCookieRepo) Load(accountKey string) (*cookies.CookieSet, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.corrupt[accountKey] {
		return nil, cookies.CorruptRecordErr
	}
	set, ok := r.sets[accountKey]
	if !ok {
		return nil, cookies.NotFoundErr
	}
	return set, nil
}

func (r *FakeCookieRepo) Save(accountKey string, set *cookies.CookieSet) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.SaveCalls++
	r.sets[accountKey] = set
	delete(r.corrupt, accountKey)
	return nil
}

func (r *FakeCookieRepo) Delete(accountKey string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.DeleteCalls++
	delete(r.sets, accountKey)
	delete(r.corrupt, accountKey)
	return nil
}

func (r *FakeCookieRepo) ListAccounts() ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	keys := make([]string, 0, len(r.sets)+len(r.corrupt))
	for k := range r.sets {
		keys = append(keys, k)
	}
	for k := range r.corrupt {
		keys = append(keys, k)
	}
	return keys, nil
}

// MarkCorrupt makes Load return CorruptRecordErr for the given account.
func (r *FakeCookieRepo) MarkCorrupt(accountKey string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.corrupt[accountKey] = true
}

// Has reports whether a record exists for the given account.
func (r *FakeCookieRepo) Has(accountKey string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.sets[accountKey]
	return ok || r.corrupt[accountKey]
}
