package server

import (
	"net/http"
)

// IndexHandler sends signed-in admins to the dashboard and everyone else to login.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := s.lookupSession(r); ok && sess.Auth.State().IsAuthenticated {
			http.Redirect(w, r, RouteAdminDashboard, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}
