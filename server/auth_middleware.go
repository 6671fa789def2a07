package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/server/loginsession"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the *loginsession.Session for the request
const ContextKeySession ContextKey = "session"

func withSession(r *http.Request, sess *loginsession.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeySession, sess))
}

// SessionFromRequest returns the session attached by LoadSession or RequireSessionAuth.
func SessionFromRequest(r *http.Request) (*loginsession.Session, bool) {
	sess, ok := r.Context().Value(ContextKeySession).(*loginsession.Session)
	return sess, ok && sess != nil
}

// lookupSession finds the live session named by the cookie, if any.
func (s *Server) lookupSession(r *http.Request) (*loginsession.Session, bool) {
	cookie, err := r.Cookie(loggedInSessionID)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	sess, err := s.sessions.Get(cookie.Value)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// LoadSession attaches the cookie's session to the context when one exists.
// It never rejects the request; used on the login routes.
func (s *Server) LoadSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := s.lookupSession(r); ok {
			r = withSession(r, sess)
		}
		next(w, r)
	}
}

// RequireSessionAuth is middleware for HTML/HTMX routes that validates session cookies
// Used for server-rendered UI routes like /admin/dashboard
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(loggedInSessionID)
			if err != nil || cookie.Value == "" {
				redirectSuccess(w, r, RouteLogin)
				return
			}

			sess, err := s.sessions.Get(cookie.Value)
			if err != nil {
				sess, err = s.restoreSession(r, cookie.Value)
				if err != nil {
					log.Debug().Err(err).Msg("no usable login session")
					s.clearLoginSessionCookie(w, r)
					redirectWithError(w, r, RouteLogin, auth.SessionExpiredMsg)
					return
				}
			}

			if !sess.Auth.State().IsAuthenticated {
				redirectSuccess(w, r, RouteLogin)
				return
			}

			now := s.nowTime()
			if sess.NeedsValidation(now, s.revalidateEvery) {
				if err := sess.Auth.FetchUser(r.Context()); err != nil {
					msg := sess.Auth.State().Error
					if msg == "" {
						msg = auth.SessionExpiredMsg
					}
					log.Info().Err(err).Str("session", shortSessionID(sess.ID)).Msg("session revalidation failed")
					s.endSession(sess)
					s.clearLoginSessionCookie(w, r)
					redirectWithError(w, r, RouteLogin, msg)
					return
				}
				sess.Validated(now)
			}

			next(w, withSession(r, sess))
		}
	}
}

// RequireFormToken rejects form posts that do not echo the session's form token.
func (s *Server) RequireFormToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromRequest(r)
		if !ok {
			http.Error(w, "403 - Missing session", http.StatusForbidden)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		token := r.PostFormValue(formTokenField)
		if token == "" {
			token = r.Header.Get("X-Form-Token")
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.FormToken)) != 1 {
			log.Warn().Str("path", r.URL.Path).Msg("form post rejected: bad form token")
			http.Error(w, "403 - Invalid form token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
