// Package auth holds the admin session: who is logged in, and whether they
// are allowed to use the console.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/clienthunt-admin/apiclient"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/session"
	"github.com/jrsteele09/clienthunt-admin/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	loginEndpoint  = "/api/v1/auth/login"
	logoutEndpoint = "/api/v1/auth/logout"
	meEndpoint     = "/api/v1/users/me"
)

// State is a snapshot of the session as the UI sees it.
type State struct {
	User            *users.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	CSRFToken    string      `json:"csrf_token"`
	TokenType    string      `json:"token_type"`
	User         *users.User `json:"user"`
}

// TokenStore is the durable credential store.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	Clear() error
}

// TabStore is the tab-scoped CSRF token store.
type TabStore interface {
	SetCSRFToken(token string)
	Clear()
}

// Listener is called with the new state after every change.
type Listener func(State)

// Store owns the session state and keeps both credential stores in step with it.
type Store struct {
	api    apiclient.Doer
	tokens TokenStore
	tab    TabStore

	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int

	logger  zerolog.Logger
	nowTime func() time.Time
}

type StoreOption func(*Store)

func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func NewStore(api apiclient.Doer, tokens TokenStore, tab TabStore, options ...StoreOption) (*Store, error) {
	if api == nil {
		return nil, errors.New("[auth NewStore] api client is required")
	}
	if tokens == nil {
		return nil, errors.New("[auth NewStore] token store is required")
	}
	if tab == nil {
		return nil, errors.New("[auth NewStore] tab store is required")
	}
	s := &Store{
		api:       api,
		tokens:    tokens,
		tab:       tab,
		listeners: map[int]Listener{},
		logger:    zerolog.Nop(),
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) snapshot() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Subscribe registers fn for state changes and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn under the lock, then notifies listeners outside it.
func (s *Store) update(fn func(*State)) State {
	s.mu.Lock()
	fn(&s.state)
	st := s.snapshot()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
	return st
}

// Login authenticates against the backend. Non-admin accounts are refused
// before anything is persisted.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if err := ValidateCredentials(email, password); err != nil {
		s.update(func(st *State) { st.Error = apiclient.Message(err) })
		return err
	}
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	resp, err := apiclient.Post[LoginResponse](ctx, s.api, loginEndpoint, LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		msg := apiclient.Message(err)
		if msg == "" {
			msg = LoginFailedMsg
		}
		s.teardown(msg)
		return errors.Wrapf(err, "[auth Login]")
	}
	if resp.AccessToken == "" {
		s.teardown(LoginFailedMsg)
		return errors.Wrapf(errors.ErrNotAuthenticated, "[auth Login] no access token in response")
	}
	if resp.User == nil || !resp.User.IsAdmin {
		s.logger.Warn().Str("email", email).Msg("login refused for non-admin account")
		s.teardown(AccessDeniedMsg)
		return errors.Wrapf(errors.ErrNotAdmin, "[auth Login] %s", email)
	}

	if err := s.tokens.Save(session.NewCredentials(resp.AccessToken, resp.RefreshToken)); err != nil {
		s.teardown(LoginFailedMsg)
		return errors.Wrapf(err, "[auth Login] save credentials")
	}
	if resp.CSRFToken != "" {
		s.tab.SetCSRFToken(resp.CSRFToken)
	}

	user := *resp.User
	s.update(func(st *State) {
		*st = State{User: &user, IsAuthenticated: true}
	})
	s.logger.Info().Str("email", user.Email).Msg("admin logged in")
	return nil
}

// Logout tells the backend (best effort) and clears both stores.
func (s *Store) Logout(ctx context.Context) {
	if tok, err := s.tokens.Load(); err == nil && tok.AccessToken != "" {
		if _, err := apiclient.Post[apiclient.Object](ctx, s.api, logoutEndpoint, nil); err != nil {
			s.logger.Debug().Err(err).Msg("logout request failed, clearing local session anyway")
		}
	}
	s.teardown("")
}

// FetchUser revalidates the stored credentials. Any failure, or an account
// that is no longer an admin, ends the session.
func (s *Store) FetchUser(ctx context.Context) error {
	tok, err := s.tokens.Load()
	if err != nil || tok == nil || tok.AccessToken == "" {
		s.teardown("")
		return errors.Wrapf(errors.ErrNotAuthenticated, "[auth FetchUser]")
	}
	if session.Expired(tok, s.nowTime()) {
		s.teardown(SessionExpiredMsg)
		return errors.Wrapf(errors.ErrSessionExpired, "[auth FetchUser]")
	}

	s.update(func(st *State) { st.IsLoading = true })
	user, err := apiclient.Get[users.User](ctx, s.api, meEndpoint, nil)
	if err != nil {
		s.logger.Info().Err(err).Msg("session revalidation failed")
		s.teardown("")
		return errors.Wrapf(err, "[auth FetchUser]")
	}
	if !user.IsAdmin {
		s.teardown(AccessDeniedMsg)
		return errors.Wrapf(errors.ErrNotAdmin, "[auth FetchUser] %s", user.Email)
	}

	s.update(func(st *State) {
		*st = State{User: &user, IsAuthenticated: true}
	})
	return nil
}

func (s *Store) ClearError() {
	s.update(func(st *State) { st.Error = "" })
}

// teardown clears both stores and resets the state, keeping msg as the error.
func (s *Store) teardown(msg string) {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("clearing stored credentials")
	}
	s.tab.Clear()
	s.update(func(st *State) {
		*st = State{Error: msg}
	})
}
