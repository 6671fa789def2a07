package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/auth"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/notify"
	"github.com/jrsteele09/clienthunt-admin/server/loginsession"
	"github.com/jrsteele09/clienthunt-admin/session"
	"github.com/rs/zerolog/log"
)

const (
	// loggedInSessionID is the name of the cookie that identifies a dashboard session
	loggedInSessionID = "clienthunt_session"
	// formTokenField is the hidden form field every POST must echo back
	formTokenField = "_csrf"

	contentTypeHTML = "text/html; charset=utf-8"
)

func (s *Server) SetLoginSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     loggedInSessionID,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearLoginSessionCookie(w http.ResponseWriter, r *http.Request) {
	s.SetLoginSessionCookie(w, "", r, -1)
}

func (s *Server) sessionCookieMaxAge() int {
	return int(s.config.GetMaxSessionAge().Seconds())
}

// newSession wires a fresh API client, credential stores and toast inbox for
// one browser. The durable token file is keyed by the session id so a restart
// can pick the session back up.
func (s *Server) newSession(id string) (*loginsession.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	logger := log.Logger.With().Str("session", shortSessionID(id)).Logger()

	tokens := session.NewFileTokenStore(s.tokenPath(id), s.sessionKey)
	tab := session.NewTabStore(0)
	client, err := apiclient.New(s.config.GetAPIBaseURL(), tokens, tab,
		apiclient.WithTimeout(s.config.GetAPITimeout()),
		apiclient.WithCSRF(s.config.GetCSRFCookieName(), s.config.GetCSRFHeaderName(), s.config.GetCSRFTokenEndpoint()),
		apiclient.WithMetrics(s.metrics),
		apiclient.WithLogger(logger),
		apiclient.WithNowTime(s.nowTime),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "[Server newSession] api client")
	}
	store, err := auth.NewStore(client, tokens, tab, auth.WithLogger(logger), auth.WithNowTime(s.nowTime))
	if err != nil {
		return nil, errors.Wrapf(err, "[Server newSession] auth store")
	}

	bus := notify.NewBus(notify.WithNowTime(s.nowTime))
	inbox := notify.NewInbox(notify.WithInboxClock(s.nowTime))
	inbox.Attach(bus)

	return &loginsession.Session{
		ID:        id,
		FormToken: uuid.NewString(),
		Auth:      store,
		Client:    client,
		Tokens:    tokens,
		Tab:       tab,
		Bus:       bus,
		Inbox:     inbox,
		CreatedAt: s.nowTime(),
	}, nil
}

// startSession creates, stores and hands out a new unauthenticated session.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (*loginsession.Session, error) {
	sess, err := s.newSession("")
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Upsert(sess); err != nil {
		return nil, errors.Wrapf(err, "[Server startSession]")
	}
	s.metrics.SetSessions(s.sessions.Count())
	s.SetLoginSessionCookie(w, sess.ID, r, s.sessionCookieMaxAge())
	return sess, nil
}

// restoreSession rebuilds a session whose credentials survived a restart.
// The id must be one we could have issued, and the stored token must still
// pass a backend check.
func (s *Server) restoreSession(r *http.Request, id string) (*loginsession.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "[Server restoreSession] malformed id")
	}
	sess, err := s.newSession(id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Tokens.Load(); err != nil {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "[Server restoreSession] %s", shortSessionID(id))
	}
	if err := sess.Auth.FetchUser(r.Context()); err != nil {
		return nil, errors.Wrapf(err, "[Server restoreSession]")
	}
	sess.Validated(s.nowTime())
	if err := s.sessions.Upsert(sess); err != nil {
		return nil, errors.Wrapf(err, "[Server restoreSession]")
	}
	s.metrics.SetSessions(s.sessions.Count())
	log.Info().Str("session", shortSessionID(id)).Msg("login session restored from stored credentials")
	return sess, nil
}

// endSession drops the session. Eviction clears its stored credentials.
func (s *Server) endSession(sess *loginsession.Session) {
	if err := s.sessions.Delete(sess.ID); err != nil {
		log.Err(err).Msg("Failed to delete login session")
	}
	s.metrics.SetSessions(s.sessions.Count())
}

// sessionEvicted runs when the repo forgets a session, by logout or by idling out.
func (s *Server) sessionEvicted(sess *loginsession.Session) {
	if err := sess.Tokens.Clear(); err != nil {
		log.Err(err).Str("session", shortSessionID(sess.ID)).Msg("Failed to clear stored credentials")
	}
	sess.Tab.Clear()
	s.metrics.SetSessions(s.sessions.Count())
}

func shortSessionID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// safeReturnPath keeps post-action redirects inside the admin area.
func safeReturnPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/admin/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return u.RequestURI()
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	fullPath := path + sep + "error=" + url.QueryEscape(errorMsg)

	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", fullPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fullPath, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
