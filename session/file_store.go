package session

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"
)

const (
	keySize   = 32
	nonceSize = 24
)

var _ TokenStore = (*FileTokenStore)(nil)

// FileTokenStore persists credentials to a single file sealed with NaCl secretbox.
type FileTokenStore struct {
	path string
	key  [keySize]byte
}

// NewFileTokenStore returns a store writing to path, sealed with key.
func NewFileTokenStore(path string, key [keySize]byte) *FileTokenStore {
	return &FileTokenStore{path: path, key: key}
}

func (s *FileTokenStore) Path() string {
	return s.path
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	sealed, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNoCredentials
		}
		return nil, errors.Wrapf(err, "[FileTokenStore Load] read %s", s.path)
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.Wrapf(errors.ErrNoCredentials, "[FileTokenStore Load] %s is truncated", s.path)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoCredentials, "[FileTokenStore Load] %s cannot be opened with this key", s.path)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, errors.Wrapf(err, "[FileTokenStore Load] decode")
	}
	if tok.AccessToken == "" {
		return nil, errors.ErrNoCredentials
	}
	return &tok, nil
}

func (s *FileTokenStore) Save(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.Wrapf(errors.ErrInvalidRequest, "[FileTokenStore Save] access token is required")
	}
	plain, err := json.Marshal(token)
	if err != nil {
		return errors.Wrapf(err, "[FileTokenStore Save] encode")
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrapf(err, "[FileTokenStore Save] nonce")
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return writeFileAtomic(s.path, sealed, 0o600)
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "[FileTokenStore Clear] remove %s", s.path)
	}
	return nil
}

// LoadOrCreateKey reads a 32 byte key from path, creating it with random
// bytes when it does not exist yet.
func LoadOrCreateKey(path string) ([keySize]byte, error) {
	var key [keySize]byte

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(data) != keySize {
			return key, fmt.Errorf("[LoadOrCreateKey] %s must hold %d bytes, found %d", path, keySize, len(data))
		}
		copy(key[:], data)
		return key, nil
	case !os.IsNotExist(err):
		return key, errors.Wrapf(err, "[LoadOrCreateKey] read %s", path)
	}

	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, errors.Wrapf(err, "[LoadOrCreateKey] generate")
	}
	if err := writeFileAtomic(path, key[:], 0o600); err != nil {
		return key, err
	}
	return key, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "[writeFileAtomic] mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "[writeFileAtomic] create temp")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "[writeFileAtomic] write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "[writeFileAtomic] sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "[writeFileAtomic] close")
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return errors.Wrapf(err, "[writeFileAtomic] chmod")
	}
	return os.Rename(tmpName, path)
}
