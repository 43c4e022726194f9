package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/utils"
)

// ProductRecordRepository forgets submitted variants whose store product was removed.
type ProductRecordRepository interface {
	DeleteByProductUUID(productUUID string) error
}

// BulkDeleteResult reports how far a bulk delete got.
type BulkDeleteResult struct {
	Requested int      `json:"requested"`
	Deleted   int      `json:"deleted"`
	DeletedID []string `json:"deletedIds"`
	FailedID  string   `json:"failedId,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ProductAdminService performs operator maintenance on imported store products.
type ProductAdminService struct {
	store   ProductStore
	records ProductRecordRepository
}

// NewProductAdminService creates a ProductAdminService.
func NewProductAdminService(store ProductStore, records ProductRecordRepository) *ProductAdminService {
	return &ProductAdminService{store: store, records: records}
}

// ParseUUIDList splits operator input on commas and newlines, dropping
// quotes and blanks.
func ParseUUIDList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.ReplaceAll(f, `"`, ""))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// BulkDelete deletes products in order and stops at the first failure.
func (s *ProductAdminService) BulkDelete(ctx context.Context, uuids []string) (*BulkDeleteResult, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("%w: no product uuids given", utils.ErrValidation)
	}
	res := &BulkDeleteResult{Requested: len(uuids), DeletedID: []string{}}
	for _, id := range uuids {
		if err := s.store.DeleteProduct(ctx, id); err != nil {
			res.FailedID = id
			res.Error = err.Error()
			log.Error().Err(err).Str("uuid", id).Int("deleted", res.Deleted).Msg("bulk delete stopped")
			return res, err
		}
		if err := s.records.DeleteByProductUUID(id); err != nil {
			log.Warn().Err(err).Str("uuid", id).Msg("failed to forget submitted variant")
		}
		res.Deleted++
		res.DeletedID = append(res.DeletedID, id)
	}
	log.Info().Int("deleted", res.Deleted).Msg("bulk delete finished")
	return res, nil
}
