package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/repository/slots"
)

var (
	// ErrNoRegisteredUser indicates login was attempted before any registration.
	ErrNoRegisteredUser = errors.New("no registered user found, please register first")

	// ErrInvalidCredentials indicates the email or password did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// Authenticator registers the single credential set and signs it in.
// A new registration replaces the previous one.
type Authenticator struct {
	slots    slots.Store
	sessions *Manager
	logger   *zap.Logger
	cost     int
}

// NewAuthenticator wires registration and login on top of the session manager.
func NewAuthenticator(storage slots.Store, sessions *Manager, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		slots:    storage,
		sessions: sessions,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Register validates the form, stores the credentials and establishes the session.
func (a *Authenticator) Register(ctx context.Context, req models.RegisterRequest) (models.Session, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" || strings.TrimSpace(req.Role) == "" {
		return models.Session{}, &models.ValidationError{Message: "Please fill all fields."}
	}
	if req.Password != req.ConfirmPassword {
		return models.Session{}, &models.ValidationError{Field: "confirmPassword", Message: "Passwords do not match."}
	}
	if len(req.Password) > maxPasswordBytes {
		return models.Session{}, &models.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)}
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return models.Session{}, &models.ValidationError{Field: "role", Message: err.Error()}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return models.Session{}, fmt.Errorf("hash password: %w", err)
	}

	if previous, ok, err := a.slots.Get(ctx, slots.KeyCredentialEmail); err == nil && ok && previous != email {
		a.logger.Warn("replacing previously registered user", zap.String("previous", previous), zap.String("identity", email))
	}

	writes := []slotWrite{
		{slots.KeyUserName, name},
		{slots.KeyUserPassword, string(hash)},
		{slots.KeyCredentialEmail, email},
		{slots.KeyCredentialRole, string(role)},
	}
	undo, err := a.writeAll(ctx, writes)
	if err != nil {
		return models.Session{}, fmt.Errorf("store credentials: %w", err)
	}

	if err := a.sessions.Establish(ctx, email, role); err != nil {
		undo()
		return models.Session{}, err
	}

	a.logger.Info("user registered", zap.String("identity", email), zap.String("role", string(role)))
	return models.Session{Identity: email, Role: role}, nil
}

type slotWrite struct {
	key   string
	value string
}

// writeAll applies every write or none of them. On success it returns an
// undo func that puts back the values the slots held before.
func (a *Authenticator) writeAll(ctx context.Context, writes []slotWrite) (func(), error) {
	type previous struct {
		value string
		ok    bool
	}
	saved := make([]previous, len(writes))
	for i, w := range writes {
		value, ok, err := a.slots.Get(ctx, w.key)
		if err != nil {
			return nil, fmt.Errorf("read slot %s: %w", w.key, err)
		}
		saved[i] = previous{value: value, ok: ok}
	}

	restore := func(n int) {
		for j := n - 1; j >= 0; j-- {
			var err error
			if saved[j].ok {
				err = a.slots.Set(ctx, writes[j].key, saved[j].value)
			} else {
				err = a.slots.Remove(ctx, writes[j].key)
			}
			if err != nil {
				a.logger.Error("failed to restore slot", zap.String("key", writes[j].key), zap.Error(err))
			}
		}
	}

	for i, w := range writes {
		if err := a.slots.Set(ctx, w.key, w.value); err != nil {
			restore(i)
			return nil, fmt.Errorf("write slot %s: %w", w.key, err)
		}
	}
	return func() { restore(len(writes)) }, nil
}

// Authenticate checks email and password against the registered credentials
// and re-establishes the session on success.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (models.Session, error) {
	storedEmail, err := a.firstOf(ctx, slots.KeyCredentialEmail, slots.KeyUserEmail)
	if err != nil {
		return models.Session{}, err
	}
	storedHash, err := a.firstOf(ctx, slots.KeyUserPassword)
	if err != nil {
		return models.Session{}, err
	}
	if storedEmail == "" || storedHash == "" {
		return models.Session{}, ErrNoRegisteredUser
	}

	if strings.TrimSpace(email) != storedEmail {
		a.logger.Info("login rejected", zap.String("identity", email))
		return models.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
		a.logger.Info("login rejected", zap.String("identity", email))
		return models.Session{}, ErrInvalidCredentials
	}

	rawRole, err := a.firstOf(ctx, slots.KeyCredentialRole, slots.KeyUserRole)
	if err != nil {
		return models.Session{}, err
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return models.Session{}, fmt.Errorf("registered role: %w", err)
	}

	if err := a.sessions.Establish(ctx, storedEmail, role); err != nil {
		return models.Session{}, err
	}
	return models.Session{Identity: storedEmail, Role: role}, nil
}

// Logout clears the active session.
func (a *Authenticator) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

// RegisteredName returns the display name stored at registration.
func (a *Authenticator) RegisteredName(ctx context.Context) (string, error) {
	return a.firstOf(ctx, slots.KeyUserName)
}

func (a *Authenticator) firstOf(ctx context.Context, keys ...string) (string, error) {
	for _, key := range keys {
		value, ok, err := a.slots.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("read slot %s: %w", key, err)
		}
		if ok && value != "" {
			return value, nil
		}
	}
	return "", nil
}
