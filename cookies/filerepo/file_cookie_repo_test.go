package filerepo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/EinMelih/kleinanzeigen-auth/cookies/filerepo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	set := &cookies.CookieSet{
		AccountKey: "john_doe_example_com",
		Email:      "john.doe@example.com",
		SavedAt:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Cookies:    []cookies.Cookie{{Name: "access_token", Value: "abc", Domain: ".kleinanzeigen.de"}},
	}

	require.NoError(t, repo.Save("john_doe_example_com", set))

	loaded, err := repo.Load("john_doe_example_com")
	require.NoError(t, err)
	require.Equal(t, set.Email, loaded.Email)
	require.Len(t, loaded.Cookies, 1)
	require.Equal(t, "access_token", loaded.Cookies[0].Name)
}

func TestLoadMissingRecord(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	_, err = repo.Load("unknown")
	require.ErrorIs(t, err, cookies.NotFoundErr)
}

func TestLoadCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	repo, err := filerepo.New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{oops"), 0o600))

	_, err = repo.Load("broken")
	require.True(t, errors.Is(err, cookies.CorruptRecordErr))
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save("a", &cookies.CookieSet{Cookies: []cookies.Cookie{{Name: "x"}}}))
	require.NoError(t, repo.Delete("a"))
	require.NoError(t, repo.Delete("a"))

	_, err = repo.Load("a")
	require.ErrorIs(t, err, cookies.NotFoundErr)
}

func TestListAccounts(t *testing.T) {
	repo, err := filerepo.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, repo.Save("a", &cookies.CookieSet{Cookies: []cookies.Cookie{{Name: "x"}}}))
	require.NoError(t, repo.Save("b", &cookies.CookieSet{Cookies: []cookies.Cookie{{Name: "y"}}}))

	keys, err := repo.ListAccounts()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)
}
