package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/catalog_import/internal/models"
)

// VariantPayload is a transformed variant ready for submission.
type VariantPayload struct {
	Variant  models.ExternalVariant
	Payload  *models.ProductPayload
	Warnings []string
}

// PrimaryVariantID returns override when it names an enabled variant of p,
// otherwise the first enabled variant. It returns "" when none is enabled.
func PrimaryVariantID(p *models.ExternalProduct, override string) string {
	first := ""
	for _, v := range p.Variants {
		if !v.IsEnabled {
			continue
		}
		if override != "" && v.ID == override {
			return v.ID
		}
		if first == "" {
			first = v.ID
		}
	}
	return first
}

// Transform builds the store payload of one variant. Attribute bindings that
// cannot be resolved through rec are dropped and reported as warnings. rec
// may be nil for previews.
func Transform(p *models.ExternalProduct, v models.ExternalVariant, rec *Reconciliation, categoryID *string, isPrimary bool) (*models.ProductPayload, []string) {
	description := StripHTML(p.Description)
	return transform(p, v, rec, categoryID, isPrimary, description)
}

// TransformAll transforms every enabled variant of p. Exactly one payload is
// visible.
func TransformAll(p *models.ExternalProduct, rec *Reconciliation, categoryID *string, primaryOverride string) []VariantPayload {
	primary := PrimaryVariantID(p, primaryOverride)
	description := StripHTML(p.Description)

	var out []VariantPayload
	for _, v := range EnabledVariants(p) {
		payload, warnings := transform(p, v, rec, categoryID, v.ID == primary, description)
		out = append(out, VariantPayload{Variant: v, Payload: payload, Warnings: warnings})
	}
	return out
}

func transform(p *models.ExternalProduct, v models.ExternalVariant, rec *Reconciliation, categoryID *string, isPrimary bool, description string) (*models.ProductPayload, []string) {
	payload := &models.ProductPayload{
		Name:              p.Title,
		Description:       description,
		ShortDescription:  ShortDescription(description),
		URLKey:            URLKey(p.Title, v.Title),
		MetaTitle:         MetaText(p.Title, v.Title),
		MetaDescription:   MetaText(p.Title, v.Title),
		MetaKeywords:      DeriveMetaKeywords(p.Tags, v.Title),
		Status:            models.ProductStatusEnabled,
		SKU:               v.SKU,
		Price:             decimal.New(v.Price, -2).InexactFloat64(),
		Weight:            decimal.New(v.Grams, -2).InexactFloat64(),
		Qty:               models.DefaultQty,
		ManageStock:       models.ManageStockDisabled,
		StockAvailability: models.StockAvailable,
		GroupID:           models.DefaultAttributeGroup,
		Visibility:        models.VisibilityHidden,
		Images:            []string{},
		CategoryID:        categoryID,
		Attributes:        []models.AttributeBinding{},
	}
	if v.Qty != nil {
		payload.Qty = fmt.Sprintf("%d", *v.Qty)
	}
	if isPrimary {
		payload.Visibility = models.VisibilityVisible
	}
	if rec != nil && rec.GroupID != "" {
		payload.GroupID = rec.GroupID
	}
	for _, img := range p.Images {
		for _, id := range img.VariantIDs {
			if id == v.ID {
				payload.Images = append(payload.Images, img.Src)
				break
			}
		}
	}

	var warnings []string
	for axis, opt := range p.Options {
		val, ok := opt.SelectedValue(v, axis)
		if !ok {
			continue
		}
		code := AttributeCode(opt.Type)
		if rec == nil {
			continue
		}
		mapping, ok := rec.Attributes[code]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("attribute %s is not reconciled, %q dropped", code, val.Title))
			continue
		}
		optionID, ok := mapping.Options[val.Title]
		if !ok || optionID == "" {
			warnings = append(warnings, fmt.Sprintf("attribute %s has no option %q, binding dropped", code, val.Title))
			continue
		}
		payload.Attributes = append(payload.Attributes, models.AttributeBinding{AttributeCode: code, Value: optionID})
	}
	return payload, warnings
}
