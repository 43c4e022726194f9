package printify

// ProductsPage is one page of the shop product listing.
type ProductsPage struct {
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	Total       int       `json:"total"`
	Data        []Product `json:"data"`
}

// Product is a Printify shop product.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Options     []Option  `json:"options"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	Visible     bool      `json:"visible"`
}

// Option is a product option axis.
type Option struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Values []OptionValue `json:"values"`
}

// OptionValue is a selectable option value.
type OptionValue struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Variant is a product variant. Price and Cost are in cents.
type Variant struct {
	ID          int64   `json:"id"`
	SKU         string  `json:"sku"`
	Cost        int64   `json:"cost"`
	Price       int64   `json:"price"`
	Title       string  `json:"title"`
	Grams       int64   `json:"grams"`
	IsEnabled   bool    `json:"is_enabled"`
	IsDefault   bool    `json:"is_default"`
	IsAvailable bool    `json:"is_available"`
	Options     []int64 `json:"options"`
	Quantity    *int64  `json:"quantity,omitempty"`
}

// Image is a product mockup image.
type Image struct {
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
	Position   string  `json:"position"`
	IsDefault  bool    `json:"is_default"`
}

// OrderRequest is the payload of an order submission.
type OrderRequest struct {
	ExternalID               string     `json:"external_id"`
	Label                    string     `json:"label"`
	LineItems                []LineItem `json:"line_items"`
	ShippingMethod           int        `json:"shipping_method"`
	IsPrintifyExpress        bool       `json:"is_printify_express"`
	IsEconomyShipping        bool       `json:"is_economy_shipping"`
	SendShippingNotification bool       `json:"send_shipping_notification"`
	AddressTo                Address    `json:"address_to"`
}

// LineItem is one ordered variant.
type LineItem struct {
	ProductID string `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Address is the order recipient.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
}

// OrderResponse is returned after an order submission.
type OrderResponse struct {
	ID string `json:"id"`
}
