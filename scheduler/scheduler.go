// Package scheduler drives the periodic cookie refresh: a single repeating
// timer that sweeps all known accounts and re-establishes the sessions that
// are expired or about to expire.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
)

// Orchestrator is the slice of the login service the scheduler drives.
type Orchestrator interface {
	Refresh(ctx context.Context, accountKey string) (auth.Outcome, error)
}

// DefaultThreshold selects accounts whose next cookie expiry is this close.
const DefaultThreshold = 6 * time.Hour

// Status is the read-only view of the scheduler.
type Status struct {
	IsRunning   bool          `json:"isRunning"`
	Interval    time.Duration `json:"interval"`
	LastSweepAt time.Time     `json:"lastSweepAt,omitempty"`
}

// SweepReport summarizes one pass over all known accounts.
type SweepReport struct {
	SweepID   string   `json:"sweepId"`
	Checked   int      `json:"checked"`
	Selected  int      `json:"selected"`
	Refreshed int      `json:"refreshed"`
	Failed    []string `json:"failed,omitempty"` // Account keys whose refresh errored
}

// State is the refresh scheduler. It is created stopped; Start arms the
// timer and replaces any existing one, Stop disarms it. All collaborators
// are injected so sweeps are testable without timers.
type State struct {
	cookies   cookies.Repo
	orch      Orchestrator
	analyzer  *cookies.Analyzer
	threshold time.Duration
	nowTime   func() time.Time

	mu        sync.Mutex
	running   bool
	interval  time.Duration
	lastSweep time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option modifies a State instance.
type Option func(*State)

// WithThreshold overrides the refresh threshold.
func WithThreshold(threshold time.Duration) Option {
	return func(s *State) {
		s.threshold = threshold
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *State) {
		s.nowTime = nowFunc
	}
}

// New creates a stopped scheduler.
func New(cookieRepo cookies.Repo, orch Orchestrator, options ...Option) (*State, error) {
	if cookieRepo == nil {
		return nil, errors.New("[scheduler.New] cookie repo is required")
	}
	if orch == nil {
		return nil, errors.New("[scheduler.New] orchestrator is required")
	}

	s := &State{
		cookies:   cookieRepo,
		orch:      orch,
		threshold: DefaultThreshold,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.analyzer = cookies.NewAnalyzer(cookies.WithNowTime(s.nowTime))
	return s, nil
}

// Start arms the repeating timer, replacing any existing one: after two
// Start calls exactly one tick fires per interval. Idempotent.
func (s *State) Start(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	oldCancel, oldDone := s.cancel, s.done
	s.running = true
	s.interval = interval
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	// Retire the previous loop before arming the new one so the timers
	// never overlap.
	if oldCancel != nil {
		oldCancel()
		<-oldDone
	}

	log.Info().Dur("interval", interval).Msg("auto-refresh started")
	go s.run(ctx, interval, done)
}

// Stop disarms the timer. An in-flight sweep finishes its current account
// and abandons the rest. Idempotent.
func (s *State) Stop() {
	s.mu.Lock()
	oldCancel, oldDone := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
		<-oldDone
		log.Info().Msg("auto-refresh stopped")
	}
}

// Status returns the current scheduler state.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		IsRunning:   s.running,
		Interval:    s.interval,
		LastSweepAt: s.lastSweep,
	}
}

func (s *State) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := s.RunSweep(ctx)
			log.Info().
				Str("sweep", report.SweepID).
				Int("checked", report.Checked).
				Int("selected", report.Selected).
				Int("refreshed", report.Refreshed).
				Int("failed", len(report.Failed)).
				Msg("refresh sweep finished")
		}
	}
}

// RunSweep performs one pass: every account with a persisted cookie set is
// analyzed, and those invalid or within the threshold are refreshed
// sequentially to bound browser concurrency. One account's failure never
// aborts the sweep, and lastSweepAt updates regardless.
func (s *State) RunSweep(ctx context.Context) SweepReport {
	report := SweepReport{SweepID: uuid.New().String()}

	defer func() {
		s.mu.Lock()
		s.lastSweep = s.nowTime()
		s.mu.Unlock()
	}()

	keys, err := s.cookies.ListAccounts()
	if err != nil {
		log.Error().Err(err).Msg("sweep could not list accounts")
		return report
	}

	for _, key := range keys {
		// Stop abandons the remaining accounts mid-sweep.
		if ctx.Err() != nil {
			return report
		}
		report.Checked++

		if !s.needsRefresh(key) {
			continue
		}
		report.Selected++

		outcome, err := s.orch.Refresh(ctx, key)
		if err != nil {
			log.Error().Err(err).Str("account", key).Msg("refresh errored")
			report.Failed = append(report.Failed, key)
			continue
		}
		if !outcome.Succeeded {
			log.Warn().Str("account", key).Str("reason", outcome.Reason).Msg("refresh did not succeed")
			report.Failed = append(report.Failed, key)
			continue
		}
		report.Refreshed++
	}

	return report
}

// needsRefresh selects accounts whose cookies are invalid, unreadable, or
// expiring within the threshold.
func (s *State) needsRefresh(accountKey string) bool {
	set, err := s.cookies.Load(accountKey)
	if err != nil {
		return true
	}

	result := s.analyzer.Analyze(set)
	if !result.IsValid {
		return true
	}
	return result.NextExpiry.Sub(s.nowTime()) <= s.threshold
}
