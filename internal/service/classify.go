package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/utils"
	"github.com/GTDGit/catalog_import/pkg/evershop"
	"github.com/GTDGit/catalog_import/pkg/printify"
)

// classifyStoreError maps a store client error onto the application sentinels.
func classifyStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *evershop.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Unauthorized():
			return fmt.Errorf("%s: %w: %v", op, utils.ErrFatalConfig, err)
		case apiErr.Conflict():
			return fmt.Errorf("%s: %w: %v", op, utils.ErrConflict, err)
		case apiErr.Temporary():
			return fmt.Errorf("%s: %w: %v", op, utils.ErrTransientRemote, err)
		default:
			return fmt.Errorf("%s: %w: %v", op, utils.ErrValidation, err)
		}
	}
	return classifyTransport(op, err)
}

// classifyCatalogError maps a catalog client error onto the application sentinels.
func classifyCatalogError(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *printify.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return fmt.Errorf("%s: %w: %v", op, utils.ErrFatalConfig, err)
		case apiErr.Temporary():
			return fmt.Errorf("%s: %w: %v", op, utils.ErrTransientRemote, err)
		default:
			return fmt.Errorf("%s: %w: %v", op, utils.ErrValidation, err)
		}
	}
	return classifyTransport(op, err)
}

func classifyTransport(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, utils.ErrTransientRemote, err)
	}
	// Anything else is a response the client could not decode.
	return fmt.Errorf("%s: %w: %v", op, utils.ErrValidation, err)
}

// RetryPolicy bounds the retries of transient remote failures.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
}

// Do runs fn until it succeeds, fails with a non-transient error, or the
// attempts are exhausted. Delays double from Base.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Base
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, utils.ErrTransientRemote) {
			return err
		}
		if i == attempts {
			break
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", i).Dur("backoff", delay).Msg("transient failure, retrying")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
