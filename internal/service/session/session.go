package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/repository/slots"
)

// ErrNoSession indicates nobody is signed in and no default role is configured.
var ErrNoSession = errors.New("no active session")

// Manager reads and writes the active viewer held in the userEmail and
// userRole slots.
type Manager struct {
	slots       slots.Store
	defaultRole models.Role
	logger      *zap.Logger
}

// NewManager creates a session manager. When defaultRole is non-empty a
// missing session is reported as an anonymous session carrying that role
// instead of ErrNoSession.
func NewManager(storage slots.Store, defaultRole models.Role, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		slots:       storage,
		defaultRole: defaultRole,
		logger:      logger,
	}
}

// Establish records identity and role as the active session.
func (m *Manager) Establish(ctx context.Context, identity string, role models.Role) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return &models.ValidationError{Field: "email", Message: "identity must not be empty"}
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return &models.ValidationError{Field: "role", Message: err.Error()}
	}

	previous, hadPrevious, err := m.slots.Get(ctx, slots.KeyUserEmail)
	if err != nil {
		return fmt.Errorf("read session identity: %w", err)
	}
	if err := m.slots.Set(ctx, slots.KeyUserEmail, identity); err != nil {
		return fmt.Errorf("store session identity: %w", err)
	}
	if err := m.slots.Set(ctx, slots.KeyUserRole, string(role)); err != nil {
		m.restoreIdentity(ctx, previous, hadPrevious)
		return fmt.Errorf("store session role: %w", err)
	}

	m.logger.Info("session established", zap.String("identity", identity), zap.String("role", string(role)))
	return nil
}

func (m *Manager) restoreIdentity(ctx context.Context, previous string, ok bool) {
	var err error
	if ok {
		err = m.slots.Set(ctx, slots.KeyUserEmail, previous)
	} else {
		err = m.slots.Remove(ctx, slots.KeyUserEmail)
	}
	if err != nil {
		m.logger.Error("failed to restore session identity", zap.Error(err))
	}
}

// Clear erases the session slots. Credentials stay registered.
func (m *Manager) Clear(ctx context.Context) error {
	for _, key := range []string{slots.KeyUserEmail, slots.KeyUserRole} {
		if err := m.slots.Remove(ctx, key); err != nil {
			return fmt.Errorf("clear session slot %s: %w", key, err)
		}
	}
	m.logger.Info("session cleared")
	return nil
}

// Current returns the active session.
func (m *Manager) Current(ctx context.Context) (models.Session, error) {
	identity, hasIdentity, err := m.slots.Get(ctx, slots.KeyUserEmail)
	if err != nil {
		return models.Session{}, fmt.Errorf("read session identity: %w", err)
	}
	rawRole, hasRole, err := m.slots.Get(ctx, slots.KeyUserRole)
	if err != nil {
		return models.Session{}, fmt.Errorf("read session role: %w", err)
	}

	if !hasIdentity || identity == "" {
		return m.anonymous()
	}
	if !hasRole || rawRole == "" {
		if m.defaultRole == "" {
			return models.Session{}, ErrNoSession
		}
		return models.Session{Identity: identity, Role: m.defaultRole}, nil
	}

	role, err := models.ParseRole(rawRole)
	if err != nil {
		return models.Session{}, fmt.Errorf("read session role: %w", err)
	}
	return models.Session{Identity: identity, Role: role}, nil
}

func (m *Manager) anonymous() (models.Session, error) {
	if m.defaultRole == "" {
		return models.Session{}, ErrNoSession
	}
	m.logger.Debug("no session, falling back to default role", zap.String("role", string(m.defaultRole)))
	return models.Session{Role: m.defaultRole}, nil
}

// CurrentRole returns the role of the active session.
func (m *Manager) CurrentRole(ctx context.Context) (models.Role, error) {
	sess, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	return sess.Role, nil
}

// CurrentIdentity returns the identity of the active session, if any.
func (m *Manager) CurrentIdentity(ctx context.Context) (string, bool, error) {
	sess, err := m.Current(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sess.Identity, sess.Identity != "", nil
}
