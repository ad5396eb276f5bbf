package filerepo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/pkg/errors"
)

var _ cookies.Repo = (*FileCookieRepo)(nil)

const fileExtension = ".json"

// FileCookieRepo stores one JSON file per account under a fixed directory.
// The per-account serialization is handled at the orchestration layer, so
// the lock here only guards directory-level races.
type FileCookieRepo struct {
	dir  string
	lock sync.RWMutex
}

// New creates the storage directory if needed and returns the repo.
func New(dir string) (*FileCookieRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "[filerepo.New] create cookie dir")
	}
	return &FileCookieRepo{dir: dir}, nil
}

func (r *FileCookieRepo) Load(accountKey string) (*cookies.CookieSet, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	data, err := os.ReadFile(r.path(accountKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cookies.NotFoundErr
		}
		return nil, errors.Wrap(err, "[FileCookieRepo.Load] read record")
	}

	var set cookies.CookieSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrap(cookies.CorruptRecordErr, err.Error())
	}
	return &set, nil
}

func (r *FileCookieRepo) Save(accountKey string, set *cookies.CookieSet) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileCookieRepo.Save] marshal record")
	}

	// Whole-record replacement: write to a temp file and rename over the old one.
	tmp := r.path(accountKey) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileCookieRepo.Save] write temp record")
	}
	if err := os.Rename(tmp, r.path(accountKey)); err != nil {
		return errors.Wrap(err, "[FileCookieRepo.Save] replace record")
	}
	return nil
}

func (r *FileCookieRepo) Delete(accountKey string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path(accountKey)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileCookieRepo.Delete] remove record")
	}
	return nil
}

func (r *FileCookieRepo) ListAccounts() ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.Wrap(err, "[FileCookieRepo.ListAccounts] read cookie dir")
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExtension) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), fileExtension))
	}
	return keys, nil
}

func (r *FileCookieRepo) path(accountKey string) string {
	return filepath.Join(r.dir, accountKey+fileExtension)
}
