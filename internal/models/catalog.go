package models

// ExternalProduct is a catalog product as delivered by the catalog source.
// Options order defines axis precedence.
type ExternalProduct struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Images      []ExternalImage   `json:"images"`
	Options     []ExternalOption  `json:"options"`
	Variants    []ExternalVariant `json:"variants"`
}

// ExternalImage is a product image and the variants it depicts.
type ExternalImage struct {
	Src        string   `json:"src"`
	VariantIDs []string `json:"variantIds"`
}

// ExternalOption is one option axis (e.g. "color") with its value domain.
type ExternalOption struct {
	Name   string                `json:"name"`
	Type   string                `json:"type"`
	Values []ExternalOptionValue `json:"values"`
}

// ExternalOptionValue is a selectable value of an axis.
type ExternalOptionValue struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ExternalVariant is a purchasable combination of one value per axis.
type ExternalVariant struct {
	ID        string   `json:"id"`
	SKU       string   `json:"sku"`
	Title     string   `json:"title"`
	Price     int64    `json:"price"` // minor units
	Grams     int64    `json:"grams"`
	Qty       *int64   `json:"qty,omitempty"`
	IsEnabled bool     `json:"isEnabled"`
	OptionIDs []string `json:"optionIds"`
}

// OptionAt returns the value id the variant selects on the axis at index
// axis. Option ids follow the order of the product's axes.
func (v ExternalVariant) OptionAt(axis int) (string, bool) {
	if axis < 0 || axis >= len(v.OptionIDs) {
		return "", false
	}
	return v.OptionIDs[axis], true
}

// SelectedValue returns the value chosen by the variant when o is the axis at
// index axis. Value ids are only unique within one axis.
func (o ExternalOption) SelectedValue(v ExternalVariant, axis int) (ExternalOptionValue, bool) {
	id, ok := v.OptionAt(axis)
	if !ok {
		return ExternalOptionValue{}, false
	}
	for _, val := range o.Values {
		if val.ID == id {
			return val, true
		}
	}
	return ExternalOptionValue{}, false
}

// Category is a store category offered for operator selection.
type Category struct {
	ID     string `json:"id"`
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	Status bool   `json:"status"`
}
