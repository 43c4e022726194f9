package service

import (
	"context"

	"github.com/GTDGit/catalog_import/internal/models"
)

// CatalogSource delivers the external catalog.
type CatalogSource interface {
	ListProducts(ctx context.Context) ([]models.ExternalProduct, error)
}

// TaxonomyStore reads and writes attribute groups and attributes. Find
// methods return (nil, nil) when the record does not exist.
type TaxonomyStore interface {
	ListGroups(ctx context.Context) ([]models.AttributeGroup, error)
	FindGroupByName(ctx context.Context, name string) (*models.AttributeGroup, error)
	CreateGroup(ctx context.Context, name string) (*models.AttributeGroup, error)
	RenameGroup(ctx context.Context, uuid, name string) (*models.AttributeGroup, error)
	DeleteGroup(ctx context.Context, uuid string) error

	ListAttributes(ctx context.Context) ([]models.Attribute, error)
	FindAttributeByCode(ctx context.Context, code string) (*models.Attribute, error)
	CreateAttribute(ctx context.Context, payload *models.AttributePayload) (*models.Attribute, error)
	PatchAttribute(ctx context.Context, id string, payload *models.AttributePayload) (*models.Attribute, error)
}

// VariantGroupStore creates variant groups and their memberships.
type VariantGroupStore interface {
	CreateVariantGroup(ctx context.Context, codes []string, groupID string) (*models.VariantGroup, error)
	AddVariantGroupMember(ctx context.Context, variantGroupUUID, productUUID string) error
}

// ProductStore creates and deletes store products.
type ProductStore interface {
	CreateProduct(ctx context.Context, payload *models.ProductPayload) (uuid string, err error)
	DeleteProduct(ctx context.Context, uuid string) error
}

// CategorySource lists store categories.
type CategorySource interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}
