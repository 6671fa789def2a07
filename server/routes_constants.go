package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Admin Routes
	RouteAdminDashboard     = "/admin/dashboard"
	RouteAdminUsers         = "/admin/users"
	RouteAdminUserAction    = "/admin/users/{id}/{action}"
	RouteAdminSubscriptions = "/admin/subscriptions"
	RouteAdminAnalytics     = "/admin/analytics"
	RouteAdminAuditLogs     = "/admin/audit-logs"
	RouteAdminPageVisits    = "/admin/page-visits"
	RouteAdminSystem        = "/admin/system"

	// Admin Routes - E2E tests
	RouteAdminE2E      = "/admin/e2e-tests"
	RouteAdminE2ERun   = "/admin/e2e-tests/run"
	RouteAdminE2EClear = "/admin/e2e-tests/clear"

	// Admin Routes - Support
	RouteAdminSupport       = "/admin/support"
	RouteAdminSupportThread = "/admin/support/{id}"
	RouteAdminSupportReply  = "/admin/support/{id}/reply"
	RouteAdminSupportStatus = "/admin/support/{id}/status"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)

// userActionDelete and userActionEmail share RouteAdminUserAction with the
// state-change actions.
const (
	userActionDelete = "delete"
	userActionEmail  = "email"
)
