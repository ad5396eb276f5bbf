package repofakes

import (
	"sort"
	"sync"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

type FakeAccountRepo struct {
	byID map[string]accounts.Account
	lock sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{byID: make(map[string]accounts.Account)}
}

func (r *FakeAccountRepo) Get(key string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	account, ok := r.byID[key]
	if !ok {
		return nil, accounts.NotFoundErr
	}
	return &account, nil
}

func (r *FakeAccountRepo) Upsert(account *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.byID[account.Key] = *account
	return nil
}

func (r *FakeAccountRepo) Delete(key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.byID, key)
	return nil
}

func (r *FakeAccountRepo) List() ([]accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]accounts.Account, 0, len(r.byID))
	for _, account := range r.byID {
		list = append(list, account)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list, nil
}
