package service

import (
	"context"

	"github.com/GTDGit/catalog_import/internal/models"
)

// ProductPreview is a normalized catalog product with the payloads an import
// would submit, before any taxonomy is reconciled.
type ProductPreview struct {
	ID               string                   `json:"id"`
	Title            string                   `json:"title"`
	Axes             []string                 `json:"axes"`
	Variants         int                      `json:"variants"`
	EnabledVariants  int                      `json:"enabledVariants"`
	PrimaryVariantID string                   `json:"primaryVariantId"`
	Issues           []string                 `json:"issues,omitempty"`
	Payloads         []*models.ProductPayload `json:"payloads"`
}

// CatalogService exposes read-only views of the catalog and the store categories.
type CatalogService struct {
	catalog    CatalogSource
	categories CategorySource
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(catalog CatalogSource, categories CategorySource) *CatalogService {
	return &CatalogService{catalog: catalog, categories: categories}
}

// ListCategories returns the store categories an operator can pick from.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListCategories(ctx)
}

// Preview returns the catalog with payload previews.
func (s *CatalogService) Preview(ctx context.Context, categoryID *string) ([]ProductPreview, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductPreview, 0, len(products))
	for i := range products {
		out = append(out, previewProduct(&products[i], categoryID))
	}
	return out, nil
}

func previewProduct(p *models.ExternalProduct, categoryID *string) ProductPreview {
	pv := ProductPreview{
		ID:               p.ID,
		Title:            p.Title,
		Variants:         len(p.Variants),
		PrimaryVariantID: PrimaryVariantID(p, ""),
		Payloads:         []*models.ProductPayload{},
	}
	for _, o := range p.Options {
		pv.Axes = append(pv.Axes, AttributeCode(o.Type))
	}
	invalid, err := ValidateProduct(p)
	if err != nil {
		pv.Issues = append(pv.Issues, err.Error())
		return pv
	}
	for _, verr := range invalid {
		pv.Issues = append(pv.Issues, verr.Error())
	}
	for _, item := range TransformAll(p, nil, categoryID, "") {
		pv.EnabledVariants++
		pv.Payloads = append(pv.Payloads, item.Payload)
	}
	return pv
}
