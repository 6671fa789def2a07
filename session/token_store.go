package session

import (
	"sync"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"golang.org/x/oauth2"
)

// TokenStore is the durable home of the bearer access token and the refresh
// token. Credentials live until Clear is called.
type TokenStore interface {
	// Load returns the stored credentials or errors.ErrNoCredentials
	Load() (*oauth2.Token, error)

	// Save replaces the stored credentials
	Save(token *oauth2.Token) error

	// Clear removes the stored credentials; clearing an empty store is not an error
	Clear() error
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// MemoryTokenStore keeps credentials for the lifetime of the process.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil || s.token.AccessToken == "" {
		return nil, errors.ErrNoCredentials
	}
	tok := *s.token
	return &tok, nil
}

func (s *MemoryTokenStore) Save(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[MemoryTokenStore Save] access token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := *token
	s.token = &tok
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
	return nil
}
