package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Classic Tee", "classic-tee"},
		{"Black / XL", "black-xl"},
		{"  Heavy   Cotton\tTee ", "-heavy-cotton-tee-"},
		{"Kid's Tee (2T)", "kids-tee-2t"},
		{"already-slugged", "already-slugged"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
		assert.Equal(t, Slugify(tt.in), Slugify(tt.in), "deterministic")
	}
}

func TestURLKey(t *testing.T) {
	assert.Equal(t, "classic-tee-black-xl", URLKey("Classic Tee", "Black / XL"))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Soft & light. Fits well.", StripHTML("<p>Soft &amp; light.</p><p> Fits well.</p>"))
	assert.Equal(t, "", StripHTML(""))
	assert.Equal(t, "plain", StripHTML("plain"))
}

func TestShortDescription(t *testing.T) {
	assert.Equal(t, "Soft cotton.", ShortDescription("Soft cotton. Machine washable!"))
	assert.Equal(t, "Really?", ShortDescription(" Really? Yes."))
	assert.Equal(t, "", ShortDescription("no terminator"))
	assert.Equal(t, "", ShortDescription(""))
}

func TestMetaText(t *testing.T) {
	assert.Equal(t, "Classic Tee Black XL", MetaText("Classic Tee", "Black / XL"))
	assert.Equal(t, "Tee ", MetaText("Tee", ""))
	assert.Equal(t, "A B C", MetaText("A   B", "C"))
}

func TestDeriveMetaKeywords(t *testing.T) {
	assert.Equal(t, "T-shirts, Cotton, Black  XL", DeriveMetaKeywords([]string{"T-shirts", "Cotton"}, "Black / XL"))
	assert.Equal(t, "Black  XL", DeriveMetaKeywords(nil, "Black / XL"))
}

func TestValidateProduct(t *testing.T) {
	_, err := ValidateProduct(&models.ExternalProduct{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))

	p := &models.ExternalProduct{
		ID: "p1",
		Options: []models.ExternalOption{
			{Name: "Color", Type: "color", Values: []models.ExternalOptionValue{{ID: "1", Title: "Red"}}},
			{Name: "Broken", Type: ""},
			{Name: "Size", Type: "size", Values: []models.ExternalOptionValue{{ID: "2", Title: "S"}, {ID: "2", Title: "M"}}},
			{Name: "Colour", Type: "Color"},
		},
	}
	invalid, err := ValidateProduct(p)
	require.NoError(t, err)
	assert.Len(t, invalid, 3)
	assert.NotContains(t, invalid, 0)
	assert.Contains(t, invalid[2].Error(), "duplicate value id")
	assert.Contains(t, invalid[3].Error(), "duplicate axis type")
}

func TestEnabledVariantsAndUsedValues(t *testing.T) {
	p := tee("p1", []string{"Black", "White"}, []string{"S", "M"}, "p1-WhiteS", "p1-WhiteM")

	enabled := EnabledVariants(&p)
	require.Len(t, enabled, 2)
	for _, v := range enabled {
		assert.True(t, v.IsEnabled)
	}

	colors := UsedOptionValues(p.Options[0], 0, enabled)
	assert.Equal(t, []models.ExternalOptionValue{{ID: "c0", Title: "Black"}}, colors)

	sizes := UsedOptionValues(p.Options[1], 1, enabled)
	assert.Len(t, sizes, 2)
}

func TestOptionValuesMatchByAxisPosition(t *testing.T) {
	color := models.ExternalOption{Name: "Colors", Type: "color", Values: []models.ExternalOptionValue{
		{ID: "1", Title: "Red"}, {ID: "2", Title: "Blue"},
	}}
	size := models.ExternalOption{Name: "Sizes", Type: "size", Values: []models.ExternalOptionValue{
		{ID: "1", Title: "S"},
	}}
	v := models.ExternalVariant{ID: "v1", IsEnabled: true, OptionIDs: []string{"2", "1"}}

	assert.Equal(t, []models.ExternalOptionValue{{ID: "2", Title: "Blue"}}, UsedOptionValues(color, 0, []models.ExternalVariant{v}))
	assert.Equal(t, []models.ExternalOptionValue{{ID: "1", Title: "S"}}, UsedOptionValues(size, 1, []models.ExternalVariant{v}))

	val, ok := color.SelectedValue(v, 0)
	require.True(t, ok)
	assert.Equal(t, "Blue", val.Title)

	_, ok = color.SelectedValue(v, 2)
	assert.False(t, ok)
}
