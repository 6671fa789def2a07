package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/internal/utils"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName   string
	FormToken string // echoed back in the _csrf hidden field
	Error     string
	Email     string // Preserve email on error
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromRequest(r)
		if ok && sess.Auth.State().IsAuthenticated {
			redirectSuccess(w, r, RouteAdminDashboard)
			return
		}
		if !ok {
			var err error
			if sess, err = s.startSession(w, r); err != nil {
				log.Err(err).Msg("Failed to start login session")
				http.Error(w, "Failed to start session", http.StatusInternalServerError)
				return
			}
		}

		data := LoginPageData{
			AppName:   s.config.GetAppName(),
			FormToken: sess.FormToken,
			Error:     r.URL.Query().Get("error"),
			Email:     r.URL.Query().Get("email"),
		}
		s.renderPage(w, "login.html", data)
	}
}

// LoginSubmissionHandler processes the login form submission (POST /auth/login).
// Credentials are stored under a fresh session id; the anonymous session that
// served the login form is dropped once the login succeeds.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anon, _ := SessionFromRequest(r)
		email := r.PostFormValue("email")
		password := r.PostFormValue("password")

		sess, err := s.newSession("")
		if err != nil {
			log.Err(err).Msg("Failed to create login session")
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		if err := sess.Auth.Login(r.Context(), email, password); err != nil {
			msg := utils.FirstNonEmpty(sess.Auth.State().Error, apiclient.Message(err), auth.LoginFailedMsg)
			log.Info().Err(err).Str("email", email).Msg("dashboard login failed")
			s.renderLoginError(w, r, msg, email)
			return
		}

		sess.Validated(s.nowTime())
		if err := s.sessions.Upsert(sess); err != nil {
			log.Err(err).Msg("Failed to store login session")
			sess.Auth.Logout(r.Context())
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		s.endSession(anon)
		s.SetLoginSessionCookie(w, sess.ID, r, s.sessionCookieMaxAge())
		sess.Bus.Success("Welcome back, " + sess.Auth.State().User.DisplayName())
		redirectSuccess(w, r, RouteAdminDashboard)
	}
}

// LogoutHandler ends the backend session (best effort) and forgets the local one.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromRequest(r)
		sess.Auth.Logout(r.Context())
		s.endSession(sess)
		s.clearLoginSessionCookie(w, r)
		redirectSuccess(w, r, RouteLogin)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	redirectURL := RouteLogin + "?error=" + url.QueryEscape(errorMsg)
	if email != "" {
		redirectURL += "&email=" + url.QueryEscape(email)
	}
	redirectSuccess(w, r, redirectURL)
}
