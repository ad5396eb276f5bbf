package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	cookiefakes "github.com/EinMelih/kleinanzeigen-auth/cookies/repofakes"
	"github.com/EinMelih/kleinanzeigen-auth/scheduler"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeOrchestrator struct {
	lock  sync.Mutex
	calls []string
	fail  map[string]error
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{fail: make(map[string]error)}
}

func (o *fakeOrchestrator) Refresh(_ context.Context, accountKey string) (auth.Outcome, error) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.calls = append(o.calls, accountKey)
	if err := o.fail[accountKey]; err != nil {
		return auth.Outcome{AccountKey: accountKey}, err
	}
	return auth.Outcome{AccountKey: accountKey, Succeeded: true, LoggedIn: true}, nil
}

func (o *fakeOrchestrator) refreshCalls() []string {
	o.lock.Lock()
	defer o.lock.Unlock()

	return append([]string(nil), o.calls...)
}

func saveSet(t *testing.T, repo *cookiefakes.FakeCookieRepo, key string, expires time.Time) {
	t.Helper()

	require.NoError(t, repo.Save(key, &cookies.CookieSet{
		AccountKey: key,
		Cookies:    []cookies.Cookie{{Name: "access_token", Value: "v", Expires: expires}},
	}))
}

func TestSweepSelectsOnlyAccountsWithinThreshold(t *testing.T) {
	repo := cookiefakes.NewFakeCookieRepo()
	orch := newFakeOrchestrator()

	state, err := scheduler.New(repo, orch,
		scheduler.WithNowTime(func() time.Time { return testNow }),
		scheduler.WithThreshold(6*time.Hour),
	)
	require.NoError(t, err)

	saveSet(t, repo, "soon", testNow.Add(2*time.Hour))     // within threshold
	saveSet(t, repo, "later", testNow.Add(48*time.Hour))   // healthy
	saveSet(t, repo, "healthy", testNow.Add(24*time.Hour)) // healthy

	report := state.RunSweep(context.Background())

	require.Equal(t, 3, report.Checked)
	require.Equal(t, 1, report.Selected)
	require.Equal(t, []string{"soon"}, orch.refreshCalls())
}

func TestSweepSelectsInvalidAndCorruptAccounts(t *testing.T) {
	repo := cookiefakes.NewFakeCookieRepo()
	orch := newFakeOrchestrator()

	state, err := scheduler.New(repo, orch,
		scheduler.WithNowTime(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	saveSet(t, repo, "expired", testNow.Add(-time.Hour))
	repo.MarkCorrupt("corrupt")

	report := state.RunSweep(context.Background())

	require.Equal(t, 2, report.Selected)
	require.ElementsMatch(t, []string{"expired", "corrupt"}, orch.refreshCalls())
}

func TestSweepSurvivesRefreshErrors(t *testing.T) {
	repo := cookiefakes.NewFakeCookieRepo()
	orch := newFakeOrchestrator()
	orch.fail["broken"] = errors.New("store exploded")

	state, err := scheduler.New(repo, orch,
		scheduler.WithNowTime(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	saveSet(t, repo, "broken", testNow.Add(-time.Hour))
	saveSet(t, repo, "fine", testNow.Add(-time.Hour))

	report := state.RunSweep(context.Background())

	// Both were attempted despite the first one erroring.
	require.ElementsMatch(t, []string{"broken", "fine"}, orch.refreshCalls())
	require.Equal(t, 1, report.Refreshed)
	require.Equal(t, []string{"broken"}, report.Failed)

	// lastSweepAt updates even when a refresh errored.
	require.Equal(t, testNow, state.Status().LastSweepAt)
}

func TestStartReplacesExistingTimer(t *testing.T) {
	repo := cookiefakes.NewFakeCookieRepo()
	orch := newFakeOrchestrator()

	state, err := scheduler.New(repo, orch)
	require.NoError(t, err)

	saveSet(t, repo, "expired", time.Now().Add(-time.Hour))

	state.Start(25 * time.Millisecond)
	state.Start(25 * time.Millisecond)
	defer state.Stop()

	time.Sleep(70 * time.Millisecond)
	state.Stop()

	// Two stacked timers would have produced roughly twice as many runs.
	calls := len(orch.refreshCalls())
	require.GreaterOrEqual(t, calls, 1)
	require.LessOrEqual(t, calls, 3)
}

func TestStopIsIdempotentAndReportsStatus(t *testing.T) {
	repo := cookiefakes.NewFakeCookieRepo()
	orch := newFakeOrchestrator()

	state, err := scheduler.New(repo, orch)
	require.NoError(t, err)

	require.False(t, state.Status().IsRunning)

	state.Start(time.Hour)
	status := state.Status()
	require.True(t, status.IsRunning)
	require.Equal(t, time.Hour, status.Interval)

	state.Stop()
	state.Stop()
	require.False(t, state.Status().IsRunning)
}
