package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_import/internal/models"
)

// SubmittedVariantRepository records the store product created for each catalog variant.
type SubmittedVariantRepository struct {
	db *sqlx.DB
}

// NewSubmittedVariantRepository creates a new SubmittedVariantRepository.
func NewSubmittedVariantRepository(db *sqlx.DB) *SubmittedVariantRepository {
	return &SubmittedVariantRepository{db: db}
}

// ListByProduct returns the submitted variants of a catalog product.
func (r *SubmittedVariantRepository) ListByProduct(externalProductID string) ([]models.SubmittedVariant, error) {
	const q = `
        SELECT * FROM catalog_import_submitted_variants
        WHERE external_product_id = $1
        ORDER BY created_at`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var rows []models.SubmittedVariant
	if err := stmt.Select(&rows, externalProductID); err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert inserts a submitted variant or points it at a new store product.
func (r *SubmittedVariantRepository) Upsert(v *models.SubmittedVariant) error {
	const q = `
        INSERT INTO catalog_import_submitted_variants (external_variant_id, external_product_id, product_uuid, variant_group_uuid, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (external_variant_id) DO UPDATE SET
            product_uuid = EXCLUDED.product_uuid,
            variant_group_uuid = EXCLUDED.variant_group_uuid,
            updated_at = NOW()`
	_, err := r.db.Exec(q, v.ExternalVariantID, v.ExternalProductID, v.ProductUUID, v.VariantGroupUUID, v.CreatedAt, v.UpdatedAt)
	return err
}

// MarkMember records that the variant's product joined its variant group.
func (r *SubmittedVariantRepository) MarkMember(externalVariantID, variantGroupUUID string) error {
	const q = `
        UPDATE catalog_import_submitted_variants
        SET variant_group_uuid = $2, updated_at = NOW()
        WHERE external_variant_id = $1`
	_, err := r.db.Exec(q, externalVariantID, variantGroupUUID)
	return err
}

// DeleteByProductUUID forgets the variant whose store product was deleted.
func (r *SubmittedVariantRepository) DeleteByProductUUID(productUUID string) error {
	_, err := r.db.Exec(`DELETE FROM catalog_import_submitted_variants WHERE product_uuid = $1`, productUUID)
	return err
}
