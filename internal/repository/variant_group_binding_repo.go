package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_import/internal/models"
)

// VariantGroupBindingRepository remembers the variant group of each catalog product.
type VariantGroupBindingRepository struct {
	db *sqlx.DB
}

// NewVariantGroupBindingRepository creates a new VariantGroupBindingRepository.
func NewVariantGroupBindingRepository(db *sqlx.DB) *VariantGroupBindingRepository {
	return &VariantGroupBindingRepository{db: db}
}

// FindByProduct returns the binding of a catalog product, or nil when it has none.
func (r *VariantGroupBindingRepository) FindByProduct(externalProductID string) (*models.VariantGroupBinding, error) {
	const q = `SELECT * FROM catalog_import_variant_groups WHERE external_product_id = $1 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var b models.VariantGroupBinding
	if err := stmt.Get(&b, externalProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a binding. An existing binding for the product is kept.
func (r *VariantGroupBindingRepository) Create(b *models.VariantGroupBinding) error {
	const q = `
        INSERT INTO catalog_import_variant_groups (external_product_id, variant_group_uuid, attribute_group_id, attribute_codes, created_at)
        VALUES (:external_product_id, :variant_group_uuid, :attribute_group_id, :attribute_codes, :created_at)
        ON CONFLICT (external_product_id) DO NOTHING`
	_, err := r.db.NamedExec(q, b)
	return err
}
