package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/EinMelih/kleinanzeigen-auth/internal/utils"
)

// CookiesStatusHandler reports stored-cookie validity for every account
// with a persisted record.
func (s *Server) CookiesStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := s.cookieRepo.ListAccounts()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing cookie records failed")
			return
		}

		statuses := make(map[string]cookies.ValidationResult, len(keys))
		for _, key := range keys {
			statuses[key] = s.accountStatus(key)
		}
		writeSuccess(w, http.StatusOK, map[string]any{"accounts": statuses, "count": len(statuses)})
	}
}

type cookieStats struct {
	Accounts          int        `json:"accounts"`
	ValidAccounts     int        `json:"validAccounts"`
	InvalidAccounts   int        `json:"invalidAccounts"`
	CorruptAccounts   int        `json:"corruptAccounts"`
	TotalCookies      int        `json:"totalCookies"`
	ExpiringWithin24h int        `json:"expiringWithin24h"`
	OldestSavedAt     *time.Time `json:"oldestSavedAt,omitempty"`
	NewestSavedAt     *time.Time `json:"newestSavedAt,omitempty"`
}

// CookieStatsHandler aggregates the cookie store into one summary.
func (s *Server) CookieStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := s.cookieRepo.ListAccounts()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing cookie records failed")
			return
		}

		var stats cookieStats
		stats.Accounts = len(keys)
		now := time.Now()

		for _, key := range keys {
			set, err := s.cookieRepo.Load(key)
			if err != nil {
				if errors.Is(err, cookies.CorruptRecordErr) {
					stats.CorruptAccounts++
				}
				stats.InvalidAccounts++
				continue
			}

			result := s.cookieAnalyzer.Analyze(set)
			stats.TotalCookies += result.CookieCount
			if !result.IsValid {
				stats.InvalidAccounts++
				continue
			}
			stats.ValidAccounts++
			if result.NextExpiry.Sub(now) <= 24*time.Hour {
				stats.ExpiringWithin24h++
			}

			if stats.OldestSavedAt == nil || set.SavedAt.Before(*stats.OldestSavedAt) {
				stats.OldestSavedAt = utils.Ptr(set.SavedAt)
			}
			if stats.NewestSavedAt == nil || set.SavedAt.After(*stats.NewestSavedAt) {
				stats.NewestSavedAt = utils.Ptr(set.SavedAt)
			}
		}
		writeSuccess(w, http.StatusOK, stats)
	}
}

type expiringAccount struct {
	AccountKey      string    `json:"accountKey"`
	NextExpiry      time.Time `json:"nextExpiry"`
	RemainingHours  float64   `json:"remainingHours"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
}

// ExpiringSoonHandler lists accounts whose next cookie expiry falls within
// the query window (default 24h, e.g. ?within=6h).
func (s *Server) ExpiringSoonHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		within := 24 * time.Hour
		if raw := r.URL.Query().Get("within"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid duration in 'within'")
				return
			}
			within = parsed
		}

		keys, err := s.cookieRepo.ListAccounts()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing cookie records failed")
			return
		}

		now := time.Now()
		expiring := make([]expiringAccount, 0)
		for _, key := range keys {
			set, err := s.cookieRepo.Load(key)
			if err != nil {
				continue
			}
			result := s.cookieAnalyzer.Analyze(set)
			if !result.IsValid {
				continue
			}
			remaining := result.NextExpiry.Sub(now)
			if remaining > within {
				continue
			}
			expiring = append(expiring, expiringAccount{
				AccountKey:      key,
				NextExpiry:      result.NextExpiry,
				RemainingHours:  remaining.Hours(),
				DaysUntilExpiry: nextExpiryDays(result),
			})
		}
		writeSuccess(w, http.StatusOK, map[string]any{"within": within.String(), "accounts": expiring, "count": len(expiring)})
	}
}

func nextExpiryDays(result cookies.ValidationResult) int {
	days := 0
	for _, detail := range result.Cookies {
		if detail.Expired {
			continue
		}
		if days == 0 || detail.DaysUntilExpiry < days {
			days = detail.DaysUntilExpiry
		}
	}
	return days
}

// CleanupHandler deletes cookie records that are expired or unreadable.
// Valid sessions are never touched.
func (s *Server) CleanupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := s.cookieRepo.ListAccounts()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing cookie records failed")
			return
		}

		removed := make([]string, 0)
		for _, key := range keys {
			result := s.accountStatus(key)
			if result.IsValid {
				continue
			}
			if err := s.cookieRepo.Delete(key); err != nil {
				log.Error().Err(err).Str("account", key).Msg("cleanup could not delete record")
				continue
			}
			removed = append(removed, key)
		}
		writeSuccess(w, http.StatusOK, map[string]any{"removed": removed, "count": len(removed)})
	}
}

// RefreshHandler re-establishes one account's session using its stored
// credentials.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		accountKey := accounts.Key(email)

		outcome, err := s.orchestrator.Refresh(r.Context(), accountKey)
		if err != nil {
			log.Error().Err(err).Str("account", accountKey).Msg("refresh failed unexpectedly")
			writeError(w, http.StatusInternalServerError, "refresh failed")
			return
		}
		writeSuccess(w, statusForOutcome(outcome), outcome)
	}
}

// RefreshAllHandler refreshes every account with a persisted cookie record,
// sequentially so only one browser session is open at a time.
func (s *Server) RefreshAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := s.cookieRepo.ListAccounts()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing cookie records failed")
			return
		}

		outcomes := make([]auth.Outcome, 0, len(keys))
		failed := make([]string, 0)
		for _, key := range keys {
			if r.Context().Err() != nil {
				break
			}
			outcome, err := s.orchestrator.Refresh(r.Context(), key)
			if err != nil {
				log.Error().Err(err).Str("account", key).Msg("refresh failed unexpectedly")
				failed = append(failed, key)
				continue
			}
			outcomes = append(outcomes, outcome)
		}
		writeSuccess(w, http.StatusOK, map[string]any{"outcomes": outcomes, "failed": failed})
	}
}

type autoRefreshRequest struct {
	Interval string `json:"interval,omitempty"` // e.g. "30m", defaults to configuration
}

// AutoRefreshStartHandler arms the background refresh timer. Calling it
// again replaces the interval rather than stacking timers.
func (s *Server) AutoRefreshStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interval := s.config.GetRefreshInterval()
		if r.Body != nil && r.ContentLength > 0 {
			var req autoRefreshRequest
			if !decodeBody(w, r, &req) {
				return
			}
			if req.Interval != "" {
				parsed, err := time.ParseDuration(req.Interval)
				if err != nil || parsed <= 0 {
					writeError(w, http.StatusBadRequest, "invalid interval")
					return
				}
				interval = parsed
			}
		}

		s.scheduler.Start(interval)
		writeSuccess(w, http.StatusOK, s.scheduler.Status())
	}
}

func (s *Server) AutoRefreshStopHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.scheduler.Stop()
		writeSuccess(w, http.StatusOK, s.scheduler.Status())
	}
}

func (s *Server) AutoRefreshStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, s.scheduler.Status())
	}
}
