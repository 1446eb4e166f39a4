// Package pg persists console sessions in PostgreSQL for deployments where
// the gateway must survive restarts without re-authenticating.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"brokerdesk.app/internal/session"
)

// Open connects to PostgreSQL using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

var _ session.Store = (*SessionStore)(nil)

// SessionStore keeps one session row per console profile.
type SessionStore struct {
	db      *sql.DB
	profile string
}

// NewSessionStore scopes the store to a profile name, so several console
// instances can share one database without clobbering each other.
func NewSessionStore(db *sql.DB, profile string) (*SessionStore, error) {
	if db == nil {
		return nil, errors.New("pg: database handle is required")
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	return &SessionStore{db: db, profile: profile}, nil
}

func (s *SessionStore) Load(ctx context.Context) (string, []byte, error) {
	var (
		token   string
		account []byte
	)
	err := s.db.QueryRowContext(ctx,
		`select token, account from console_sessions where profile = $1`,
		s.profile,
	).Scan(&token, &account)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	if token == "" || len(account) == 0 {
		// A half-written row is corruption, not absence.
		return "", nil, session.ErrCorrupt
	}
	return token, account, nil
}

func (s *SessionStore) Save(ctx context.Context, token string, account []byte) error {
	_, err := s.db.ExecContext(ctx, `
		insert into console_sessions (profile, token, account, updated_at)
		values ($1, $2, $3, now())
		on conflict (profile) do update
		set token = excluded.token, account = excluded.account, updated_at = now()
	`, s.profile, token, account)
	return err
}

func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`delete from console_sessions where profile = $1`, s.profile)
	return err
}
