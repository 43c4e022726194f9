package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_import/internal/service"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// ProductRemover deletes imported store products.
type ProductRemover interface {
	BulkDelete(ctx context.Context, uuids []string) (*service.BulkDeleteResult, error)
}

// ProductHandler handles store product maintenance endpoints.
type ProductHandler struct {
	products ProductRemover
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(products ProductRemover) *ProductHandler {
	return &ProductHandler{products: products}
}

// bulkDeleteRequest accepts a uuid list, a pasted comma or newline separated
// string, or both.
type bulkDeleteRequest struct {
	UUIDs []string `json:"uuids"`
	Raw   string   `json:"raw"`
}

// BulkDelete handles POST /v1/products/bulk-delete
func (h *ProductHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	var uuids []string
	for _, id := range req.UUIDs {
		uuids = append(uuids, service.ParseUUIDList(id)...)
	}
	uuids = append(uuids, service.ParseUUIDList(req.Raw)...)

	res, err := h.products.BulkDelete(c.Request.Context(), uuids)
	if err != nil {
		if res != nil {
			utils.Success(c, http.StatusMultiStatus, "Bulk delete stopped at "+res.FailedID, res)
			return
		}
		utils.ErrorFrom(c, err, "Failed to delete products")
		return
	}
	utils.Success(c, http.StatusOK, "Products deleted", res)
}
