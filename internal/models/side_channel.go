package models

// OrderPlacedEvent is delivered by the store when an order is confirmed.
type OrderPlacedEvent struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

// ProductImageAddedEvent is delivered by the store when a product image is stored.
type ProductImageAddedEvent struct {
	ProductID   int64  `json:"product_image_product_id" binding:"required"`
	OriginImage string `json:"origin_image" binding:"required"`
}

// StoreOrder is the subset of a store order forwarded to the catalog source.
type StoreOrder struct {
	ID                int64  `db:"order_id"`
	SID               string `db:"sid"`
	CustomerEmail     string `db:"customer_email"`
	ShippingAddressID int64  `db:"shipping_address_id"`
}

// StoreOrderItem is one line of a store order joined with the catalog
// variant it was imported from, if any.
type StoreOrderItem struct {
	ProductSKU        string  `db:"product_sku"`
	Qty               int     `db:"qty"`
	ExternalProductID *string `db:"external_product_id"`
	ExternalVariantID *string `db:"external_variant_id"`
}

// StoreAddress is a shipping address of a store order.
type StoreAddress struct {
	FullName     string  `db:"full_name"`
	Telephone    string  `db:"telephone"`
	Country      string  `db:"country"`
	ProvinceName *string `db:"province_name"`
	Address1     string  `db:"address_1"`
	Address2     *string `db:"address_2"`
	City         string  `db:"city"`
	Postcode     string  `db:"postcode"`
}

// ImageVariants are the resized URLs written back for a product image.
type ImageVariants struct {
	Single  string `json:"single_image"`
	Listing string `json:"listing_image"`
	Thumb   string `json:"thumb_image"`
}
