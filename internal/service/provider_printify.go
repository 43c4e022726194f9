package service

import (
	"context"
	"strconv"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/pkg/printify"
)

// PrintifyCatalog adapts the Printify client to CatalogSource.
type PrintifyCatalog struct {
	client *printify.Client
}

// NewPrintifyCatalog creates a PrintifyCatalog.
func NewPrintifyCatalog(client *printify.Client) *PrintifyCatalog {
	return &PrintifyCatalog{client: client}
}

// ListProducts implements CatalogSource.
func (c *PrintifyCatalog) ListProducts(ctx context.Context) ([]models.ExternalProduct, error) {
	products, err := c.client.ListProducts(ctx)
	if err != nil {
		return nil, classifyCatalogError("list catalog products", err)
	}
	out := make([]models.ExternalProduct, 0, len(products))
	for i := range products {
		out = append(out, convertPrintifyProduct(&products[i]))
	}
	return out, nil
}

func convertPrintifyProduct(p *printify.Product) models.ExternalProduct {
	ep := models.ExternalProduct{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
	}
	for _, img := range p.Images {
		ep.Images = append(ep.Images, models.ExternalImage{Src: img.Src, VariantIDs: formatIDs(img.VariantIDs)})
	}
	for _, opt := range p.Options {
		eo := models.ExternalOption{Name: opt.Name, Type: opt.Type}
		for _, v := range opt.Values {
			eo.Values = append(eo.Values, models.ExternalOptionValue{ID: formatID(v.ID), Title: v.Title})
		}
		ep.Options = append(ep.Options, eo)
	}
	for _, v := range p.Variants {
		ep.Variants = append(ep.Variants, models.ExternalVariant{
			ID:        formatID(v.ID),
			SKU:       v.SKU,
			Title:     v.Title,
			Price:     v.Price,
			Grams:     v.Grams,
			Qty:       v.Quantity,
			IsEnabled: v.IsEnabled,
			OptionIDs: formatIDs(v.Options),
		})
	}
	return ep
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = formatID(id)
	}
	return out
}
