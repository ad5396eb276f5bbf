package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// LOGIN
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthCheckLogin, ChainMiddleware(s.CheckLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthUsers, ChainMiddleware(s.UsersHandler(), s.APIMiddleware()...))

	// COOKIES
	s.RegisterRouteHandler("GET "+RouteCookiesStatus, ChainMiddleware(s.CookiesStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCookiesStats, ChainMiddleware(s.CookieStatsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCookiesExpiringSoon, ChainMiddleware(s.ExpiringSoonHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCookiesCleanup, ChainMiddleware(s.CleanupHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCookiesRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCookiesRefreshAll, ChainMiddleware(s.RefreshAllHandler(), s.APIMiddleware()...))

	// AUTO-REFRESH
	s.RegisterRouteHandler("POST "+RouteAutoRefreshStart, ChainMiddleware(s.AutoRefreshStartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAutoRefreshStop, ChainMiddleware(s.AutoRefreshStopHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAutoRefreshStatus, ChainMiddleware(s.AutoRefreshStatusHandler(), s.APIMiddleware()...))

	// TOKENS
	s.RegisterRouteHandler("GET "+RouteTokensAnalyze, ChainMiddleware(s.TokenAnalyzeHandler(), s.APIMiddleware()...))
}
