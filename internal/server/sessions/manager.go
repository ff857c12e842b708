// Package sessions implements the authenticator: it verifies credentials
// against the credential store and owns the registry of live session
// identities, one per interactive user, each paired with its own dataset
// session. Session identities live in memory only.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/auth"
	"github.com/chipsfactory/prodreport/internal/server/credstore"
	"github.com/chipsfactory/prodreport/internal/server/dataset"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

type entry struct {
	session *models.Session
	data    *dataset.Session
}

type Manager struct {
	creds         credstore.Repository
	log           logging.Logger
	secretKey     []byte
	tokenValidity time.Duration

	mu     sync.RWMutex
	active map[string]*entry
}

func NewManager(creds credstore.Repository, secretKey []byte, tokenValidity time.Duration, log logging.Logger) *Manager {
	return &Manager{
		creds:         creds,
		log:           log.With("component", "sessions"),
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
		active:        make(map[string]*entry),
	}
}

// LoginResult bundles the new session identity with its transport token.
type LoginResult struct {
	Session *models.Session
	Token   string
}

// Login verifies the credentials and establishes a session. Unknown accounts
// and wrong passwords both yield ErrInvalidCredentials so callers cannot
// enumerate accounts. The plaintext password is neither stored nor logged.
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	account, err := m.creds.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("credential lookup: %w", err)
	}

	if !auth.VerifyPassword(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	session := &models.Session{
		ID:              uuid.NewString(),
		Username:        account.Username,
		FullName:        account.FullName,
		Role:            account.Role,
		AuthenticatedAt: time.Now(),
	}

	token, err := auth.GenerateToken(session.ID, m.secretKey, m.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("token generation: %w", err)
	}

	m.mu.Lock()
	m.active[session.ID] = &entry{session: session, data: dataset.NewSession()}
	m.mu.Unlock()

	m.log.Info(ctx, "login", "username", username, "role", session.Role)
	return &LoginResult{Session: session, Token: token}, nil
}

// Logout discards the session identity and its dataset session. Subsequent
// operations with the same handle fail with ErrUnauthenticated.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	e, ok := m.active[sessionID]
	delete(m.active, sessionID)
	m.mu.Unlock()

	if !ok {
		return common.ErrUnauthenticated
	}
	m.log.Info(ctx, "logout", "username", e.session.Username)
	return nil
}

// Resolve maps a transport token back to its live session identity. Expired
// tokens, forged tokens, and tokens whose session was logged out all resolve
// to ErrUnauthenticated.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	sessionID, err := auth.GetSessionIDFromToken(token, m.secretKey)
	if err != nil {
		return nil, common.ErrUnauthenticated
	}

	m.mu.RLock()
	e, ok := m.active[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, common.ErrUnauthenticated
	}
	return e.session, nil
}

// Dataset returns the dataset session owned by the given session identity,
// or nil when the session is gone.
func (m *Manager) Dataset(sessionID string) *dataset.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.active[sessionID]
	if !ok {
		return nil
	}
	return e.data
}
