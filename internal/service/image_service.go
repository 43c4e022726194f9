package service

import (
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

const catalogImageHost = "images.printify.com"

// ProductImageRepository updates the resized URLs of a stored product image.
type ProductImageRepository interface {
	UpdateVariants(productID int64, originImage string, variants models.ImageVariants) (int64, error)
}

// ImageService points catalog-hosted product images at the host's own resizes.
type ImageService struct {
	images ProductImageRepository
}

// NewImageService creates an ImageService.
func NewImageService(images ProductImageRepository) *ImageService {
	return &ImageService{images: images}
}

// ResizedVariants returns the single, listing and thumb URLs for a catalog
// image, and false for images hosted elsewhere.
func ResizedVariants(origin string) (models.ImageVariants, bool, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return models.ImageVariants{}, false, fmt.Errorf("%w: bad image url: %v", utils.ErrValidation, err)
	}
	if u.Hostname() != catalogImageHost {
		return models.ImageVariants{}, false, nil
	}
	return models.ImageVariants{
		Single:  withSize(*u, "400"),
		Listing: withSize(*u, "400"),
		Thumb:   withSize(*u, "100"),
	}, true, nil
}

func withSize(u url.URL, size string) string {
	q := u.Query()
	q.Set("s", size)
	u.RawQuery = q.Encode()
	return u.String()
}

// HandleImageAdded rewrites the variants of a newly stored image. It reports
// whether any row was updated.
func (s *ImageService) HandleImageAdded(productID int64, originImage string) (bool, error) {
	variants, ok, err := ResizedVariants(originImage)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Debug().Str("origin_image", originImage).Msg("image not hosted by the catalog, skipped")
		return false, nil
	}
	n, err := s.images.UpdateVariants(productID, originImage, variants)
	if err != nil {
		return false, fmt.Errorf("update product image: %w", err)
	}
	log.Debug().Int64("product_id", productID).Int64("rows", n).Msg("product image variants updated")
	return n > 0, nil
}
