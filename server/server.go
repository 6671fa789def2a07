// Package server is the browser-facing admin dashboard. It renders server-side
// HTML and talks to the ClientHunt backend on behalf of each logged-in admin.
package server

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/clienthunt-admin/internal/config"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/metrics"
	"github.com/jrsteele09/clienthunt-admin/server/loginsession"
	"github.com/jrsteele09/clienthunt-admin/session"
	"github.com/rs/zerolog/log"
)

const defaultRevalidateInterval = 5 * time.Minute

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	metrics    *metrics.Metrics
	sessions   loginsession.Repo
	sessionKey [32]byte
	pages      map[string]*template.Template

	revalidateEvery time.Duration
	nowTime         func() time.Time
}

type Option func(*Server)

// WithMetrics shares a metrics registry with the server. By default it creates its own.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithSessionRepo replaces the default in-memory session repository.
func WithSessionRepo(repo loginsession.Repo) Option {
	return func(s *Server) {
		s.sessions = repo
	}
}

// WithRevalidateInterval sets how often a session is re-checked against the backend.
func WithRevalidateInterval(d time.Duration) Option {
	return func(s *Server) {
		s.revalidateEvery = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, options ...Option) (*Server, error) {
	key, err := session.LoadOrCreateKey(cfg.GetSessionKeyFile())
	if err != nil {
		return nil, errors.Wrapf(err, "[Server New] session key")
	}
	pages, err := parsePages()
	if err != nil {
		return nil, errors.Wrapf(err, "[Server New] templates")
	}

	s := &Server{
		env:             cfg.GetEnv(),
		mux:             http.NewServeMux(),
		config:          cfg,
		sessionKey:      key,
		pages:           pages,
		revalidateEvery: defaultRevalidateInterval,
		nowTime:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.sessions == nil {
		s.sessions = loginsession.NewCacheRepo(cfg.GetMaxSessionAge(), s.sessionEvicted)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s] %s", methodLabel(method), path)
}

func (s *Server) sessionsFolder() string {
	return filepath.Join(s.config.GetDataFolder(), "sessions")
}

func (s *Server) tokenPath(sessionID string) string {
	return filepath.Join(s.sessionsFolder(), fmt.Sprintf("%s.tok", sessionID))
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
