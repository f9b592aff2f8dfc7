package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Account Routes
	RouteRegister = "/api/user/register"
	RouteLogin    = "/api/user/login"
	RouteLogout   = "/api/user/logout"

	// Profile Routes
	RouteProfile        = "/api/user/profile"
	RouteProfileByID    = "/api/user/profile/{id}"
	RouteChangePassword = "/api/user/change-password"

	// Team Routes (admin-gated except listing notifications)
	RouteTeam     = "/api/user/get-team"
	RouteActivate = "/api/user/activate/{id}"
	RouteUserByID = "/api/user/{id}"

	// Notification Routes
	RouteNotifications = "/api/user/notifications"
	RouteReadNoti      = "/api/user/read-noti"

	// Observability Routes
	RouteMetrics = "/metrics"
)
