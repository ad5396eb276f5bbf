package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
)

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"app": s.config.GetAppName()})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// LoginHandler drives one full login orchestration for the given account.
// A password is optional when the account has stored credentials.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		outcome, err := s.orchestrator.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			log.Error().Err(err).Str("email", req.Email).Msg("login failed unexpectedly")
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		writeSuccess(w, statusForOutcome(outcome), outcome)
	}
}

// StatusHandler reports stored-cookie validity for one account. The check
// reads expiry metadata only; no browser is involved.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		result := s.orchestrator.Status(email)
		writeSuccess(w, statusForValidation(result), statusResponse{
			AccountKey: accounts.Key(email),
			Email:      email,
			Result:     result,
		})
	}
}

type checkLoginRequest struct {
	Email string `json:"email"`
}

// CheckLoginHandler probes the live session in the browser. It never falls
// back to a full login; an invalid session is reported, not repaired.
func (s *Server) CheckLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkLoginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		result := s.orchestrator.CheckLogin(r.Context(), req.Email)
		writeSuccess(w, http.StatusOK, statusResponse{
			AccountKey: accounts.Key(req.Email),
			Email:      req.Email,
			Result:     result,
		})
	}
}

type statusResponse struct {
	AccountKey string                   `json:"accountKey"`
	Email      string                   `json:"email"`
	Result     cookies.ValidationResult `json:"result"`
}

type userSummary struct {
	Key               string                   `json:"key"`
	Email             string                   `json:"email"`
	HasStoredPassword bool                     `json:"hasStoredPassword"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	Cookies           cookies.ValidationResult `json:"cookies"`
}

// UsersHandler lists all known accounts with their cookie status.
func (s *Server) UsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.accountRepo.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "listing accounts failed")
			return
		}

		users := make([]userSummary, 0, len(all))
		for _, account := range all {
			users = append(users, userSummary{
				Key:               account.Key,
				Email:             account.Email,
				HasStoredPassword: len(account.SealedPassword) > 0,
				CreatedAt:         account.CreatedAt,
				UpdatedAt:         account.UpdatedAt,
				Cookies:           s.accountStatus(account.Key),
			})
		}
		writeSuccess(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
	}
}

// accountStatus analyzes one account's stored cookies from raw bytes when
// possible so a corrupt record surfaces as CORRUPT_STORE rather than an
// internal error.
func (s *Server) accountStatus(accountKey string) cookies.ValidationResult {
	set, err := s.cookieRepo.Load(accountKey)
	if err != nil {
		result := s.cookieAnalyzer.Analyze(nil)
		if errors.Is(err, cookies.CorruptRecordErr) {
			result.Reason = cookies.ReasonCorruptStore
			result.Error = err.Error()
		}
		return result
	}
	return s.cookieAnalyzer.Analyze(set)
}

func statusForOutcome(outcome auth.Outcome) int {
	switch {
	case outcome.Reason == auth.ReasonMissingCredentials:
		return http.StatusBadRequest
	case outcome.RequiresEmailVerification:
		return http.StatusAccepted
	case !outcome.Succeeded:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func statusForValidation(result cookies.ValidationResult) int {
	if result.Reason == cookies.ReasonNoCookies {
		return http.StatusNotFound
	}
	return http.StatusOK
}
