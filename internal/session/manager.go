package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"brokerdesk.app/internal/audit"
	"brokerdesk.app/internal/authz"
)

// bootstrapRoles is the coarse product-level gate applied when restoring a
// persisted session. loginRoles is the stricter gate applied to fresh
// logins: only administrators sign in through this console, the other roles
// arrive with sessions issued elsewhere. The two lists are intentionally
// distinct; do not unify them.
var bootstrapRoles = map[authz.Role]struct{}{
	authz.RoleAdmin:    {},
	authz.RoleBuyer:    {},
	authz.RoleBroker:   {},
	authz.RoleSupplier: {},
}

var loginRoles = map[authz.Role]struct{}{
	authz.RoleAdmin:      {},
	authz.RoleSuperAdmin: {},
}

// Snapshot is the immutable session view consumed by the route guard and
// the navigation filter.
type Snapshot struct {
	Restoring bool
	Token     string
	Account   *authz.Account
}

// Authenticated reports whether a definite, restored account is present.
func (s Snapshot) Authenticated() bool {
	return !s.Restoring && s.Account != nil
}

// Manager owns the single logical session: it restores persisted state once
// at startup and is the only writer of the Store thereafter.
type Manager struct {
	store  Store
	client AuthClient
	now    func() time.Time

	mu         sync.RWMutex
	restoring  bool
	token      string
	account    *authz.Account
	rawAccount []byte
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager constructs a Manager. The session counts as restoring until
// Bootstrap resolves, so guards never mistake a not-yet-loaded session for
// a logged-out one.
func NewManager(store Store, client AuthClient, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: store is required")
	}
	if client == nil {
		return nil, errors.New("session: auth client is required")
	}
	m := &Manager{
		store:     store,
		client:    client,
		now:       time.Now,
		restoring: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Restoring: m.restoring, Token: m.token, Account: m.account}
}

// Bootstrap restores the persisted session. Malformed or disallowed state
// is wiped rather than ignored: a corrupted session must not survive a
// restart. The restore itself never fails the caller; only store I/O errors
// propagate.
func (m *Manager) Bootstrap(ctx context.Context) error {
	token, raw, err := m.store.Load(ctx)
	if errors.Is(err, ErrCorrupt) {
		m.wipe(ctx, "unreadable stored session")
		return nil
	}
	if err != nil {
		m.set(nil, "", nil)
		return err
	}
	if token == "" || len(raw) == 0 {
		m.set(nil, "", nil)
		return nil
	}

	var account authz.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		m.wipe(ctx, "unparseable stored account")
		return nil
	}
	if _, ok := bootstrapRoles[account.Role]; !ok {
		m.wipe(ctx, fmt.Sprintf("role %q outside allow-list", account.Role))
		return nil
	}
	if exp, ok := TokenExpiry(token); ok && m.now().After(exp) {
		m.wipe(ctx, "stored token expired")
		return nil
	}

	m.set(&account, token, raw)
	return nil
}

// Login exchanges credentials with the upstream and establishes the
// session. Only administrator roles are accepted here, even when the
// upstream reports success; rejected logins leave stored state untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*authz.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrLoginFailed)
	}

	result, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var account authz.Account
	if err := json.Unmarshal(result.Account, &account); err != nil {
		return nil, fmt.Errorf("%w: malformed account payload", ErrLoginFailed)
	}
	if _, ok := loginRoles[account.Role]; !ok {
		_ = audit.LogEvent(ctx, "session.login.role_rejected", map[string]any{
			"email": email,
			"role":  string(account.Role),
		})
		return nil, fmt.Errorf("%w: role %q may not sign in here", ErrRoleNotAllowed, account.Role)
	}

	if err := m.store.Save(ctx, result.Token, result.Account); err != nil {
		return nil, err
	}
	m.set(&account, result.Token, result.Account)

	_ = audit.LogEvent(ctx, "session.login", map[string]any{
		"account_id": account.ID,
		"role":       string(account.Role),
	})
	return &account, nil
}

// Logout notifies the upstream best-effort and unconditionally clears local
// state. The operator's intent to log out locally always succeeds; only a
// failure to erase the store surfaces as an error.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token != "" {
		if err := m.client.Logout(ctx, token); err != nil {
			_ = audit.LogEvent(ctx, "session.logout.notify_failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	clearErr := m.store.Clear(ctx)
	m.set(nil, "", nil)
	_ = audit.LogEvent(ctx, "session.logout", nil)
	return clearErr
}

// wipe clears both persisted values and records why. Clear failures are
// logged, not returned: the session is denied either way.
func (m *Manager) wipe(ctx context.Context, reason string) {
	if err := m.store.Clear(ctx); err != nil {
		_ = audit.LogEvent(ctx, "session.bootstrap.clear_failed", map[string]any{
			"error": err.Error(),
		})
	}
	_ = audit.LogEvent(ctx, "session.bootstrap.cleared", map[string]any{
		"reason": reason,
	})
	m.set(nil, "", nil)
}

func (m *Manager) set(account *authz.Account, token string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restoring = false
	m.account = account
	m.token = token
	m.rawAccount = raw
}

// RawAccount returns the serialized account exactly as the upstream issued
// it, for surfaces that must not drop unmodeled fields.
func (m *Manager) RawAccount() json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.rawAccount) == 0 {
		return nil
	}
	out := make([]byte, len(m.rawAccount))
	copy(out, m.rawAccount)
	return out
}
