package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/service"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// CatalogReader lists store categories and previews the catalog.
type CatalogReader interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	Preview(ctx context.Context, categoryID *string) ([]service.ProductPreview, error)
}

// CatalogHandler handles read-only catalog endpoints.
type CatalogHandler struct {
	catalog CatalogReader
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories handles GET /v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to retrieve categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	utils.Success(c, http.StatusOK, "Categories retrieved", categories)
}

// PreviewProducts handles GET /v1/catalog/products?categoryId=
func (h *CatalogHandler) PreviewProducts(c *gin.Context) {
	var categoryID *string
	if v := c.Query("categoryId"); v != "" {
		categoryID = &v
	}
	previews, err := h.catalog.Preview(c.Request.Context(), categoryID)
	if err != nil {
		utils.ErrorFrom(c, err, "Failed to preview catalog")
		return
	}
	utils.Success(c, http.StatusOK, "Catalog retrieved", previews)
}
