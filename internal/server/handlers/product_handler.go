package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/media"
	"github.com/mamadbah2/farmchainx/internal/service/dashboard"
	"github.com/mamadbah2/farmchainx/internal/service/qrcode"
	"github.com/mamadbah2/farmchainx/internal/service/records"
)

// MediaOpener loads stored product images.
type MediaOpener interface {
	Open(ctx context.Context, ref string) (media.Object, error)
}

// ProductHandler serves product listing, creation, deletion, QR codes and images.
type ProductHandler struct {
	dashboard *dashboard.Controller
	media     MediaOpener
	logger    *zap.Logger
}

// NewProductHandler constructs the HTTP handler adapter.
func NewProductHandler(controller *dashboard.Controller, opener MediaOpener, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{dashboard: controller, media: opener, logger: logger}
}

// List returns the products visible to the session.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.dashboard.Products(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Create adds a product from a JSON body or a multipart form carrying an
// optional imageFile part.
func (h *ProductHandler) Create(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBind(&draft); err != nil {
		h.logger.Warn("invalid product payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}

	var image io.Reader
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		file, err := c.FormFile("imageFile")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			h.logger.Warn("invalid image upload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image upload"})
			return
		default:
			f, err := file.Open()
			if err != nil {
				respondError(c, h.logger, err)
				return
			}
			defer f.Close()
			image = f
		}
	}

	record, err := h.dashboard.AddProduct(c.Request.Context(), draft, image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": record})
}

// Delete removes a product. The request must carry confirm=true.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	var confirm records.Confirmer
	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); confirmed {
		confirm = records.Confirmed
	}

	if _, err := h.dashboard.DeleteProduct(c.Request.Context(), id, confirm); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// QR renders the product's QR symbol as PNG, or its payload with format=json.
func (h *ProductHandler) QR(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	record, err := h.dashboard.VisibleProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if c.Query("format") == "json" {
		payload, err := qrcode.Payload(record)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(qrcode.DefaultSize)))
	png, err := qrcode.PNG(record, size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// OpenQR opens the QR modal on a product.
func (h *ProductHandler) OpenQR(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	record, err := h.dashboard.OpenQR(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": record, "state": h.dashboard.State()})
}

// Media streams a stored product image.
func (h *ProductHandler) Media(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": media.ErrNotFound.Error()})
		return
	}

	obj, err := h.media.Open(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}

func (h *ProductHandler) productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
