// Package session holds the signed-in identity and its bearer token.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

// persisted under fixed keys so a reload finds them again
type record struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type Store struct {
	mu     sync.RWMutex
	path   string
	user   *model.User
	token  string
	logger *zap.Logger
}

// NewStore creates an empty store backed by the file at path. Call Load to
// restore a previous session.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load restores the persisted session. A missing file means signed out.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var rec record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("discarding unreadable session file", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.User == nil || rec.Token == "" {
		s.user, s.token = nil, ""
		return nil
	}
	s.user, s.token = rec.User, rec.Token
	return nil
}

func (s *Store) SetAuth(user model.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(record{User: &user, Token: token}); err != nil {
		return err
	}
	s.user, s.token = &user, token
	return nil
}

func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user, s.token = nil, ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

func (s *Store) persist(rec record) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	// write-then-rename keeps the old session intact if the write fails
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
