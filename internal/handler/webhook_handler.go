package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/service"
)

// WebhookHandler handles store events.
type WebhookHandler struct {
	orders interface {
		HandleOrderPlaced(ctx context.Context, orderID int64) (*service.OrderResult, error)
	}
	images interface {
		HandleImageAdded(productID int64, originImage string) (bool, error)
	}
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(
	orders interface {
		HandleOrderPlaced(ctx context.Context, orderID int64) (*service.OrderResult, error)
	},
	images interface {
		HandleImageAdded(productID int64, originImage string) (bool, error)
	},
) *WebhookHandler {
	return &WebhookHandler{orders: orders, images: images}
}

// HandleOrderPlaced handles POST /webhook/order-placed
func (h *WebhookHandler) HandleOrderPlaced(c *gin.Context) {
	var event models.OrderPlacedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.orders.HandleOrderPlaced(c.Request.Context(), event.OrderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", event.OrderID).Msg("Failed to forward order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "result": res})
}

// HandleProductImageAdded handles POST /webhook/product-image-added
func (h *WebhookHandler) HandleProductImageAdded(c *gin.Context) {
	var event models.ProductImageAddedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	updated, err := h.images.HandleImageAdded(event.ProductID, event.OriginImage)
	if err != nil {
		log.Error().Err(err).Int64("product_id", event.ProductID).Msg("Failed to update product image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "updated": updated})
}
