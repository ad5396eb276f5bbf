package filerepo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	"github.com/pkg/errors"
)

var _ accounts.Repo = (*FileAccountRepo)(nil)

const accountsFile = "accounts.json"

// FileAccountRepo keeps all account records in a single JSON file,
// loaded at startup and rewritten on every mutation.
type FileAccountRepo struct {
	path string
	byID map[string]accounts.Account
	lock sync.RWMutex
}

// New loads (or initializes) the accounts file under the data directory.
func New(dataDir string) (*FileAccountRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "[filerepo.New] create data dir")
	}

	r := &FileAccountRepo{
		path: filepath.Join(dataDir, accountsFile),
		byID: make(map[string]accounts.Account),
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, errors.Wrap(err, "[filerepo.New] read accounts file")
	}
	if err := json.Unmarshal(data, &r.byID); err != nil {
		return nil, errors.Wrap(err, "[filerepo.New] decode accounts file")
	}
	return r, nil
}

func (r *FileAccountRepo) Get(key string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	account, ok := r.byID[key]
	if !ok {
		return nil, accounts.NotFoundErr
	}
	return &account, nil
}

func (r *FileAccountRepo) Upsert(account *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.byID[account.Key] = *account
	return r.persist()
}

func (r *FileAccountRepo) Delete(key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.byID[key]; !ok {
		return nil
	}
	delete(r.byID, key)
	return r.persist()
}

func (r *FileAccountRepo) List() ([]accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]accounts.Account, 0, len(r.byID))
	for _, account := range r.byID {
		list = append(list, account)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list, nil
}

func (r *FileAccountRepo) persist() error {
	data, err := json.MarshalIndent(r.byID, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileAccountRepo.persist] marshal")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileAccountRepo.persist] write temp file")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "[FileAccountRepo.persist] replace file")
	}
	return nil
}
