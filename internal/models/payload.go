package models

// Fixed store policy values applied to every imported variant.
const (
	ProductStatusEnabled  = "1"
	ManageStockDisabled   = "0"
	StockAvailable        = "1"
	VisibilityVisible     = "1"
	VisibilityHidden      = "0"
	DefaultAttributeGroup = "1"
	DefaultQty            = "0"
	AttributeTypeSelect   = "select"
)

// ProductPayload is the store-ready representation of one catalog variant.
type ProductPayload struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	ShortDescription  string             `json:"short_description"`
	URLKey            string             `json:"url_key"`
	MetaTitle         string             `json:"meta_title"`
	MetaDescription   string             `json:"meta_description"`
	MetaKeywords      string             `json:"meta_keywords"`
	Status            string             `json:"status"`
	SKU               string             `json:"sku"`
	Price             float64            `json:"price"`
	Weight            float64            `json:"weight"`
	Qty               string             `json:"qty"`
	ManageStock       string             `json:"manage_stock"`
	StockAvailability string             `json:"stock_availability"`
	GroupID           string             `json:"group_id"`
	Visibility        string             `json:"visibility"`
	Images            []string           `json:"images"`
	CategoryID        *string            `json:"category_id"`
	Attributes        []AttributeBinding `json:"attributes"`
}

// AttributeBinding ties a product to one option of an attribute.
type AttributeBinding struct {
	AttributeCode string `json:"attribute_code"`
	Value         string `json:"value"`
}
