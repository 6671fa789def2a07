package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare(s.LoadSession)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.LoadSession, s.RequireFormToken)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.LoadSession, s.RequireFormToken)...))

	// Admin pages (require session-based auth)
	s.RegisterRouteHandler("GET "+RouteAdminDashboard, ChainMiddleware(s.AdminDashboardHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersListHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminSubscriptions, ChainMiddleware(s.AdminSubscriptionsHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminAnalytics, ChainMiddleware(s.AdminAnalyticsHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminAuditLogs, ChainMiddleware(s.AdminAuditLogsHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminPageVisits, ChainMiddleware(s.AdminPageVisitsHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminSystem, ChainMiddleware(s.AdminSystemHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminE2E, ChainMiddleware(s.AdminE2EHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminSupport, ChainMiddleware(s.AdminSupportListHandler(), s.adminMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminSupportThread, ChainMiddleware(s.AdminSupportThreadHandler(), s.adminMiddleware()...))

	// Admin form posts (also require the form token)
	s.RegisterRouteHandler("POST "+RouteAdminUserAction, ChainMiddleware(s.AdminUserActionHandler(), s.adminMiddleware(s.RequireFormToken)...))
	s.RegisterRouteHandler("POST "+RouteAdminE2ERun, ChainMiddleware(s.AdminE2ERunHandler(), s.adminMiddleware(s.RequireFormToken)...))
	s.RegisterRouteHandler("POST "+RouteAdminE2EClear, ChainMiddleware(s.AdminE2EClearHandler(), s.adminMiddleware(s.RequireFormToken)...))
	s.RegisterRouteHandler("POST "+RouteAdminSupportReply, ChainMiddleware(s.AdminSupportReplyHandler(), s.adminMiddleware(s.RequireFormToken)...))
	s.RegisterRouteHandler("POST "+RouteAdminSupportStatus, ChainMiddleware(s.AdminSupportStatusHandler(), s.adminMiddleware(s.RequireFormToken)...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CompressionMiddleware, s.CacheMiddleware)...))
}

func (s *Server) adminMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	return s.HTMLMiddleWare(append([]func(http.HandlerFunc) http.HandlerFunc{s.RequireSessionAuth()}, mw...)...)
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

// HealthHandler reports liveness of the dashboard process itself.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func logError(method, path, errMsg string) {
	log.Error().Msgf("[%s] %s %s", methodLabel(method), path, errorColor.Sprint(errMsg))
}
