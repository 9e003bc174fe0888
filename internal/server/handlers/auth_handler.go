package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/metrics"
)

// Authenticator registers and signs in the single user.
type Authenticator interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.Session, error)
	Authenticate(ctx context.Context, email, password string) (models.Session, error)
}

// SessionReader exposes the active session.
type SessionReader interface {
	Current(ctx context.Context) (models.Session, error)
}

// LogoutController clears the session together with dashboard state.
type LogoutController interface {
	Logout(ctx context.Context) error
}

// AuthHandler serves the register, login and logout routes.
type AuthHandler struct {
	auth     Authenticator
	sessions SessionReader
	logout   LogoutController
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(auth Authenticator, sessions SessionReader, logout LogoutController, m *metrics.Metrics, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, sessions: sessions, logout: logout, metrics: m, logger: logger}
}

// Register stores the credentials and opens a session.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all fields."})
		return
	}

	sess, err := h.auth.Register(c.Request.Context(), req)
	h.metrics.AuthAttempt("register", err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful! Please login.", "session": sess})
}

// Login checks credentials against the registered user.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	sess, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	h.metrics.AuthAttempt("login", err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": sess, "redirect": "/dashboard"})
}

// Logout clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.logout.Logout(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session reports the active session.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.sessions.Current(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}
