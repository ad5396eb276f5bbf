package server

import (
	"errors"
	"net/http"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/EinMelih/kleinanzeigen-auth/tokens"
)

type tokenAnalysis struct {
	AccountKey string         `json:"accountKey"`
	Email      string         `json:"email"`
	Claims     []tokens.Claim `json:"claims"`
}

// TokenAnalyzeHandler decodes the expiry claims embedded in the account's
// stored token cookies. Signatures are not verified; the tokens belong to
// the marketplace and only their timing is of interest here.
func (s *Server) TokenAnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		accountKey := accounts.Key(email)

		set, err := s.cookieRepo.Load(accountKey)
		if err != nil {
			if errors.Is(err, cookies.NotFoundErr) {
				writeError(w, http.StatusNotFound, "no cookies stored for account")
				return
			}
			if errors.Is(err, cookies.CorruptRecordErr) {
				writeError(w, http.StatusInternalServerError, "cookie record could not be decoded")
				return
			}
			writeError(w, http.StatusInternalServerError, "loading cookies failed")
			return
		}

		claims := s.tokenAnalyzer.Analyze(set)
		writeSuccess(w, http.StatusOK, tokenAnalysis{
			AccountKey: accountKey,
			Email:      email,
			Claims:     claims,
		})
	}
}
