package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_import/internal/models"
)

// ProductImageRepository updates the store's product image rows.
type ProductImageRepository struct {
	db *sqlx.DB
}

// NewProductImageRepository creates a new ProductImageRepository.
func NewProductImageRepository(db *sqlx.DB) *ProductImageRepository {
	return &ProductImageRepository{db: db}
}

// UpdateVariants sets the resized URLs of the image stored for productID
// from originImage and returns the number of rows changed.
func (r *ProductImageRepository) UpdateVariants(productID int64, originImage string, v models.ImageVariants) (int64, error) {
	const q = `
        UPDATE product_image
        SET single_image = $1, listing_image = $2, thumb_image = $3
        WHERE product_image_product_id = $4 AND origin_image = $5`
	res, err := r.db.Exec(q, v.Single, v.Listing, v.Thumb, productID, originImage)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
