package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

var (
	nonSlugChars    = regexp.MustCompile(`[^\w\s-]`)
	nonWordChars    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	doubleSpaceRun  = regexp.MustCompile(`\s\s+`)
	firstSentence   = regexp.MustCompile(`[^.!?]*[.!?]`)
	plainTextPolicy = bluemonday.StrictPolicy()
)

// Slugify drops characters outside [\w\s-], turns whitespace runs into a
// single dash and lower-cases the result.
func Slugify(text string) string {
	s := nonSlugChars.ReplaceAllString(text, "")
	s = whitespaceRun.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// URLKey builds the store url key of a variant.
func URLKey(title, variantTitle string) string {
	return Slugify(strings.ToLower(title)) + "-" + Slugify(variantTitle)
}

// StripHTML converts rich text into plain text.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(plainTextPolicy.Sanitize(s))
}

// ShortDescription returns the first sentence of text, or "" when text has
// no sentence terminator.
func ShortDescription(text string) string {
	return strings.TrimSpace(firstSentence.FindString(text))
}

// MetaText is the meta title and meta description of a variant.
func MetaText(title, variantTitle string) string {
	s := nonSlugChars.ReplaceAllString(title+" "+variantTitle, "")
	return doubleSpaceRun.ReplaceAllString(s, " ")
}

// DeriveMetaKeywords joins the product tags and the cleaned variant title.
func DeriveMetaKeywords(tags []string, variantTitle string) string {
	cleaned := nonWordChars.ReplaceAllString(variantTitle, "")
	if len(tags) == 0 {
		return cleaned
	}
	return strings.Join(tags, ", ") + ", " + cleaned
}

// ValidationError describes malformed catalog data. Axis is empty when the
// whole product is rejected.
type ValidationError struct {
	ProductID string
	Axis      string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Axis != "" {
		return fmt.Sprintf("product %s axis %q: %s", e.ProductID, e.Axis, e.Reason)
	}
	return fmt.Sprintf("product %q: %s", e.ProductID, e.Reason)
}

// Unwrap lets callers match utils.ErrValidation.
func (e *ValidationError) Unwrap() error { return utils.ErrValidation }

// ValidateProduct checks a catalog product. A product-level problem is
// returned as err; axis-level problems are keyed by option index and the
// offending axes are skipped by the pipeline.
func ValidateProduct(p *models.ExternalProduct) (invalidAxes map[int]*ValidationError, err error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, &ValidationError{ProductID: p.ID, Reason: "missing id"}
	}
	invalidAxes = make(map[int]*ValidationError)
	codes := make(map[string]struct{}, len(p.Options))
	for i, opt := range p.Options {
		if strings.TrimSpace(opt.Type) == "" {
			invalidAxes[i] = &ValidationError{ProductID: p.ID, Axis: opt.Name, Reason: "empty type"}
			continue
		}
		code := AttributeCode(opt.Type)
		if _, dup := codes[code]; dup {
			invalidAxes[i] = &ValidationError{ProductID: p.ID, Axis: opt.Type, Reason: "duplicate axis type"}
			continue
		}
		codes[code] = struct{}{}
		seen := make(map[string]struct{}, len(opt.Values))
		for _, v := range opt.Values {
			if _, dup := seen[v.ID]; dup {
				invalidAxes[i] = &ValidationError{ProductID: p.ID, Axis: opt.Type, Reason: "duplicate value id " + v.ID}
				break
			}
			seen[v.ID] = struct{}{}
		}
	}
	return invalidAxes, nil
}

// EnabledVariants returns the enabled variants of p in catalog order.
func EnabledVariants(p *models.ExternalProduct) []models.ExternalVariant {
	out := make([]models.ExternalVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.IsEnabled {
			out = append(out, v)
		}
	}
	return out
}

// UsedOptionValues returns the values of opt, the axis at index axis,
// selected by at least one of variants, in axis order and unique by title.
func UsedOptionValues(opt models.ExternalOption, axis int, variants []models.ExternalVariant) []models.ExternalOptionValue {
	used := make(map[string]struct{})
	for _, v := range variants {
		if id, ok := v.OptionAt(axis); ok {
			used[id] = struct{}{}
		}
	}
	titles := make(map[string]struct{})
	var out []models.ExternalOptionValue
	for _, val := range opt.Values {
		if _, ok := used[val.ID]; !ok {
			continue
		}
		if _, dup := titles[val.Title]; dup {
			continue
		}
		titles[val.Title] = struct{}{}
		out = append(out, val)
	}
	return out
}

// AttributeCode is the store attribute code of an option axis.
func AttributeCode(axisType string) string {
	return strings.ToUpper(strings.TrimSpace(axisType))
}
