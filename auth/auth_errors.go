package auth

// Messages shown to the admin when a session cannot be established or kept.
const (
	AccessDeniedMsg   = "Access denied. Admin privileges required."
	SessionExpiredMsg = "Your session has expired. Please log in again."
	LoginFailedMsg    = "Login failed"
)
