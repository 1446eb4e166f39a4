// Package session owns the operator session: the persisted bearer token and
// serialized account pair, its restore-at-boot lifecycle, and the login and
// logout exchanges with the upstream authentication endpoint.
package session

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrCorrupt marks stored session state that cannot be read back.
	// Callers treat it as an invalid session to wipe, not as an I/O fault.
	ErrCorrupt = errors.New("session: stored session unreadable")

	ErrLoginFailed    = errors.New("session: login failed")
	ErrRoleNotAllowed = errors.New("session: role not allowed")
	ErrNotReady       = errors.New("session: restore in progress")
)

// Store persists the two session values across restarts. An absent session
// loads as an empty token with a nil account and no error.
type Store interface {
	Load(ctx context.Context) (token string, account []byte, err error)
	Save(ctx context.Context, token string, account []byte) error
	Clear(ctx context.Context) error
}

// MemStore keeps the session in memory. Used by tests and by deployments
// that deliberately drop the session on restart.
type MemStore struct {
	mu      sync.Mutex
	token   string
	account []byte
	present bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Load(ctx context.Context) (string, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return "", nil, nil
	}
	account := make([]byte, len(s.account))
	copy(account, s.account)
	return s.token, account, nil
}

func (s *MemStore) Save(ctx context.Context, token string, account []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.account = make([]byte, len(account))
	copy(s.account, account)
	s.present = true
	return nil
}

func (s *MemStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.account = nil
	s.present = false
	return nil
}
