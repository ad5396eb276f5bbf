package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/EinMelih/kleinanzeigen-auth/accounts"
	"github.com/EinMelih/kleinanzeigen-auth/auth"
	"github.com/EinMelih/kleinanzeigen-auth/cookies"
	"github.com/EinMelih/kleinanzeigen-auth/internal/config"
	"github.com/EinMelih/kleinanzeigen-auth/scheduler"
	"github.com/EinMelih/kleinanzeigen-auth/tokens"
)

// Orchestrator is the slice of the login service the HTTP handlers drive.
type Orchestrator interface {
	Login(ctx context.Context, email, password string) (auth.Outcome, error)
	Refresh(ctx context.Context, accountKey string) (auth.Outcome, error)
	Status(email string) cookies.ValidationResult
	CheckLogin(ctx context.Context, email string) cookies.ValidationResult
}

type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config

	orchestrator Orchestrator
	scheduler    *scheduler.State
	cookieRepo   cookies.Repo
	accountRepo  accounts.Repo

	cookieAnalyzer *cookies.Analyzer
	tokenAnalyzer  *tokens.Analyzer
}

func New(config config.Config, orchestrator Orchestrator, sched *scheduler.State, cookieRepo cookies.Repo, accountRepo accounts.Repo) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("[Server New] orchestrator is required")
	}
	if sched == nil {
		return nil, fmt.Errorf("[Server New] scheduler is required")
	}
	if cookieRepo == nil || accountRepo == nil {
		return nil, fmt.Errorf("[Server New] repos are required")
	}

	s := &Server{
		mux:            http.NewServeMux(),
		config:         config,
		orchestrator:   orchestrator,
		scheduler:      sched,
		cookieRepo:     cookieRepo,
		accountRepo:    accountRepo,
		cookieAnalyzer: cookies.NewAnalyzer(),
		tokenAnalyzer:  tokens.NewAnalyzer(),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
