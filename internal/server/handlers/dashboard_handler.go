package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/service/dashboard"
)

// Exporter mirrors the product table into a spreadsheet.
type Exporter interface {
	Export(ctx context.Context) (int, error)
}

// DashboardHandler serves the landing page, dashboard view state, orders and export.
type DashboardHandler struct {
	dashboard *dashboard.Controller
	sessions  SessionReader
	exporter  Exporter
	logger    *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter. exporter may be nil
// when spreadsheet export is not configured.
func NewDashboardHandler(controller *dashboard.Controller, sessions SessionReader, exporter Exporter, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dashboard: controller, sessions: sessions, exporter: exporter, logger: logger}
}

// Landing describes the available navigation routes.
func (h *DashboardHandler) Landing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "FarmChainX",
		"tagline": "Trace produce from farm to table.",
		"routes": gin.H{
			"register":  "/register",
			"login":     "/login",
			"dashboard": "/dashboard",
		},
	})
}

// Enter rehydrates the dashboard for the session.
func (h *DashboardHandler) Enter(c *gin.Context) {
	view, err := h.dashboard.Enter(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type selectPageRequest struct {
	Page string `json:"page" binding:"required"`
}

// SelectPage switches the dashboard sub-view.
func (h *DashboardHandler) SelectPage(c *gin.Context) {
	var req selectPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page is required"})
		return
	}
	if _, err := h.sessions.Current(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}

	state, err := h.dashboard.SelectPage(dashboard.Page(req.Page))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// ToggleForm opens or closes the add-product form.
func (h *DashboardHandler) ToggleForm(c *gin.Context) {
	state, err := h.dashboard.ToggleForm(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// CloseQR closes the QR modal.
func (h *DashboardHandler) CloseQR(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.dashboard.CloseQR()})
}

// Orders lists the demo orders.
func (h *DashboardHandler) Orders(c *gin.Context) {
	orders, err := h.dashboard.Orders(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Export mirrors the product table into the configured spreadsheet. Admin only.
func (h *DashboardHandler) Export(c *gin.Context) {
	sess, err := h.sessions.Current(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if sess.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "export is restricted to admins"})
		return
	}
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "spreadsheet export is not configured"})
		return
	}

	count, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exported": count})
}
