package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin      = "/auth/login"
	RouteAuthStatus     = "/auth/status/{email}"
	RouteAuthCheckLogin = "/auth/check-login"
	RouteAuthUsers      = "/auth/users"

	// Cookie Routes
	RouteCookiesStatus       = "/cookies/status"
	RouteCookiesStats        = "/cookies/stats"
	RouteCookiesExpiringSoon = "/cookies/expiring-soon"
	RouteCookiesCleanup      = "/cookies/cleanup"
	RouteCookiesRefresh      = "/cookies/refresh/{email}"
	RouteCookiesRefreshAll   = "/cookies/refresh-all"

	// Auto-Refresh Routes
	RouteAutoRefreshStart  = "/cookies/auto-refresh/start"
	RouteAutoRefreshStop   = "/cookies/auto-refresh/stop"
	RouteAutoRefreshStatus = "/cookies/auto-refresh/status"

	// Token Routes
	RouteTokensAnalyze = "/tokens/analyze/{email}"

	// Health
	RouteHealth = "/health"
)
