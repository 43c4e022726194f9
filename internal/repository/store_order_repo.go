package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_import/internal/models"
)

// StoreOrderRepository reads orders from the store's own tables.
type StoreOrderRepository struct {
	db *sqlx.DB
}

// NewStoreOrderRepository creates a new StoreOrderRepository.
func NewStoreOrderRepository(db *sqlx.DB) *StoreOrderRepository {
	return &StoreOrderRepository{db: db}
}

// GetOrder returns a single order by id, or sql.ErrNoRows.
func (r *StoreOrderRepository) GetOrder(orderID int64) (*models.StoreOrder, error) {
	const q = `
        SELECT order_id, sid, customer_email, shipping_address_id
        FROM "order" WHERE order_id = $1 LIMIT 1`
	var o models.StoreOrder
	if err := r.db.Get(&o, q, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetItems returns the lines of an order with the catalog variant each
// product was imported from. Lines of products that were not imported carry
// NULL catalog ids.
func (r *StoreOrderRepository) GetItems(orderID int64) ([]models.StoreOrderItem, error) {
	const q = `
        SELECT oi.product_sku, oi.qty, sv.external_product_id, sv.external_variant_id
        FROM order_item oi
        LEFT JOIN product p ON p.product_id = oi.product_id
        LEFT JOIN catalog_import_submitted_variants sv ON sv.product_uuid = p.uuid::text
        WHERE oi.order_item_order_id = $1
        ORDER BY oi.order_item_id`
	var items []models.StoreOrderItem
	if err := r.db.Select(&items, q, orderID); err != nil {
		return nil, err
	}
	return items, nil
}

// GetAddress returns an order address by id.
func (r *StoreOrderRepository) GetAddress(addressID int64) (*models.StoreAddress, error) {
	const q = `
        SELECT full_name, telephone, country, province AS province_name, address_1, address_2, city, postcode
        FROM order_address WHERE order_address_id = $1 LIMIT 1`
	var a models.StoreAddress
	if err := r.db.Get(&a, q, addressID); err != nil {
		return nil, err
	}
	return &a, nil
}
