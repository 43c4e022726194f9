package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/cache"
	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/sse"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// ImportRunRepository persists import runs. GetByID returns sql.ErrNoRows
// when the run does not exist.
type ImportRunRepository interface {
	Create(run *models.ImportRun) error
	Finish(run *models.ImportRun) error
	GetByID(id string) (*models.ImportRun, error)
	List(limit, offset int) ([]models.ImportRun, int, error)
}

// SubmittedVariantRepository records the store products created per catalog variant.
type SubmittedVariantRepository interface {
	ListByProduct(externalProductID string) ([]models.SubmittedVariant, error)
	Upsert(v *models.SubmittedVariant) error
	MarkMember(externalVariantID, variantGroupUUID string) error
}

// RunOptions are the operator choices for one run.
type RunOptions struct {
	Trigger string `json:"trigger"`
	// ProductIDs limits the run to these catalog products; empty means all.
	ProductIDs []string `json:"productIds"`
	// GroupNames overrides the attribute group name per product id.
	GroupNames map[string]string `json:"groupNames"`
	// PrimaryVariants picks the visible variant per product id.
	PrimaryVariants map[string]string `json:"primaryVariants"`
	CategoryID      *string           `json:"categoryId"`
}

// ImportService runs the catalog import pipeline.
type ImportService struct {
	baseCtx     context.Context
	catalog     CatalogSource
	reconciler  *Reconciler
	binder      *VariantGroupBinder
	products    ProductStore
	memberships VariantGroupStore
	runs        ImportRunRepository
	submitted   SubmittedVariantRepository
	runLocker   cache.Locker
	runLockKey  string
	retry       RetryPolicy
	concurrency int
	validate    func() error
	notifier    sse.ImportNotifier
	unrecorded  *unrecorded[*models.SubmittedVariant]
}

// ImportServiceDeps groups the collaborators of an ImportService.
type ImportServiceDeps struct {
	Catalog     CatalogSource
	Reconciler  *Reconciler
	Binder      *VariantGroupBinder
	Products    ProductStore
	Memberships VariantGroupStore
	Runs        ImportRunRepository
	Submitted   SubmittedVariantRepository
	RunLocker   cache.Locker
	// RunLockKey names the catalog shop a run writes for.
	RunLockKey  string
	Retry       RetryPolicy
	Concurrency int
	// Validate reports missing credentials; nil skips the check.
	Validate func() error
	// Notifier receives run progress; nil disables it.
	Notifier sse.ImportNotifier
}

// NewImportService creates an ImportService. Runs started with Start live
// as long as baseCtx.
func NewImportService(baseCtx context.Context, d ImportServiceDeps) *ImportService {
	if d.Concurrency <= 0 {
		d.Concurrency = 1
	}
	if d.Notifier == nil {
		d.Notifier = sse.NopNotifier{}
	}
	return &ImportService{
		baseCtx:     baseCtx,
		catalog:     d.Catalog,
		reconciler:  d.Reconciler,
		binder:      d.Binder,
		products:    d.Products,
		memberships: d.Memberships,
		runs:        d.Runs,
		submitted:   d.Submitted,
		runLocker:   d.RunLocker,
		runLockKey:  "run:" + d.RunLockKey,
		retry:       d.Retry,
		concurrency: d.Concurrency,
		validate:    d.Validate,
		notifier:    d.Notifier,
		unrecorded:  newUnrecorded[*models.SubmittedVariant](),
	}
}

// Start begins a run in the background and returns it in the running state.
func (s *ImportService) Start(opts RunOptions) (*models.ImportRun, error) {
	run, unlock, err := s.begin(s.baseCtx, opts)
	if err != nil {
		return nil, err
	}
	snapshot := *run
	go func() {
		defer unlock()
		_ = s.execute(s.baseCtx, run, opts)
	}()
	return &snapshot, nil
}

// Run executes a full run and returns its final state.
func (s *ImportService) Run(ctx context.Context, opts RunOptions) (*models.ImportRun, error) {
	run, unlock, err := s.begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return run, s.execute(ctx, run, opts)
}

// GetRun returns a run with its product reports.
func (s *ImportService) GetRun(id string) (*models.ImportRun, error) {
	run, err := s.runs.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrRunNotFound
		}
		return nil, err
	}
	if run.Report.Valid {
		if err := json.Unmarshal([]byte(run.Report.String), &run.Products); err != nil {
			return nil, fmt.Errorf("decode run report: %w", err)
		}
	}
	return run, nil
}

// ListRuns returns a page of runs, newest first.
func (s *ImportService) ListRuns(page, limit int) ([]models.ImportRun, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.runs.List(limit, (page-1)*limit)
}

// begin takes the run lock and records a new run.
func (s *ImportService) begin(ctx context.Context, opts RunOptions) (*models.ImportRun, func(), error) {
	unlock, err := s.runLocker.TryLock(ctx, s.runLockKey)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, nil, utils.ErrImportRunning
		}
		return nil, nil, fmt.Errorf("acquire run lock: %w", err)
	}
	trigger := opts.Trigger
	if trigger == "" {
		trigger = "manual"
	}
	run := &models.ImportRun{
		ID:        uuid.NewString(),
		Status:    models.RunStatusRunning,
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runs.Create(run); err != nil {
		unlock()
		return nil, nil, fmt.Errorf("create run: %w", err)
	}
	s.notifier.RunStarted(run)
	return run, unlock, nil
}

// runContext is the state shared by the product pipelines of one run.
type runContext struct {
	run    *models.ImportRun
	opts   RunOptions
	cancel context.CancelFunc

	mu    sync.Mutex
	bound map[string]string
	fatal error
}

func (rc *runContext) groupName(productID string) string {
	if name := rc.opts.GroupNames[productID]; name != "" {
		return name
	}
	return productID
}

func (rc *runContext) boundGroup(productID string) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	vg, ok := rc.bound[productID]
	return vg, ok
}

func (rc *runContext) setBound(productID, vgUUID string) {
	rc.mu.Lock()
	rc.bound[productID] = vgUUID
	rc.mu.Unlock()
}

// abort stops new products from starting after a fatal error.
func (rc *runContext) abort(err error) {
	rc.mu.Lock()
	if rc.fatal == nil {
		rc.fatal = err
	}
	rc.mu.Unlock()
	rc.cancel()
}

func (rc *runContext) fatalErr() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.fatal
}

// execute processes the catalog with bounded concurrency and records the
// outcome on run. Once ctx is cancelled no new product starts; products in
// flight finish on a detached context. The returned error is the one that
// aborted the run, if any.
func (s *ImportService) execute(ctx context.Context, run *models.ImportRun, opts RunOptions) error {
	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	rc := &runContext{run: run, opts: opts, cancel: cancel, bound: make(map[string]string)}

	products, err := s.loadCatalog(runCtx, opts)
	if err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("import aborted")
		s.finish(run, nil, err)
		return err
	}
	run.Total = len(products)
	log.Info().Str("run_id", run.ID).Int("products", run.Total).Int("concurrency", s.concurrency).Msg("import started")

	reports := make([]models.ProductReport, len(products))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range products {
		if !acquire(runCtx, sem) {
			for j := i; j < len(products); j++ {
				reports[j] = notStarted(runCtx, rc, &products[j])
			}
			break
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			reports[idx] = s.processProduct(context.WithoutCancel(runCtx), rc, &products[idx])
			s.notifier.ProductFinished(run.ID, &reports[idx])
		}(i)
	}
	wg.Wait()

	runErr := rc.fatalErr()
	if runErr == nil && ctx.Err() != nil {
		runErr = fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	s.finish(run, reports, runErr)
	log.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("total", run.Total).
		Int("succeeded", run.Succeeded).
		Int("failed", run.Failed).
		Dur("duration", time.Since(start)).
		Msg("import finished")
	return runErr
}

// acquire takes a worker slot unless ctx is done first.
func acquire(ctx context.Context, sem chan struct{}) bool {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}
	if ctx.Err() != nil {
		<-sem
		return false
	}
	return true
}

func notStarted(ctx context.Context, rc *runContext, p *models.ExternalProduct) models.ProductReport {
	reason := ctx.Err()
	if fatal := rc.fatalErr(); fatal != nil {
		reason = fmt.Errorf("not started: %w", fatal)
	}
	r := models.ProductReport{ProductID: p.ID, Title: p.Title, State: models.StatePending}
	r.Fail(models.StatePending, reason)
	return r
}

// loadCatalog validates configuration and fetches the products to import.
func (s *ImportService) loadCatalog(ctx context.Context, opts RunOptions) ([]models.ExternalProduct, error) {
	if s.validate != nil {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrFatalConfig, err)
		}
	}
	var products []models.ExternalProduct
	err := s.retry.Do(ctx, "list catalog", func() error {
		var err error
		products, err = s.catalog.ListProducts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(opts.ProductIDs) == 0 {
		return products, nil
	}
	wanted := make(map[string]struct{}, len(opts.ProductIDs))
	for _, id := range opts.ProductIDs {
		wanted[id] = struct{}{}
	}
	filtered := make([]models.ExternalProduct, 0, len(opts.ProductIDs))
	for _, p := range products {
		if _, ok := wanted[p.ID]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// finish summarises reports onto run and persists it.
func (s *ImportService) finish(run *models.ImportRun, reports []models.ProductReport, runErr error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Products = reports
	run.Succeeded, run.Failed = 0, 0
	for _, r := range reports {
		if r.State == models.StateDone {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}
	switch {
	case runErr != nil && run.Succeeded == 0:
		run.Status = models.RunStatusFailed
	case run.Failed == 0 && runErr == nil:
		run.Status = models.RunStatusSuccess
	case run.Succeeded == 0:
		run.Status = models.RunStatusFailed
	default:
		run.Status = models.RunStatusPartial
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}
	if raw, err := json.Marshal(reports); err == nil {
		run.Report = sql.NullString{String: string(raw), Valid: true}
	} else {
		log.Error().Err(err).Str("run_id", run.ID).Msg("failed to encode run report")
	}
	if err := s.runs.Finish(run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("failed to persist run")
	}
	s.notifier.RunFinished(run)
}

// processProduct drives one catalog product through the pipeline. Every
// outcome, including failure, is returned as a report.
func (s *ImportService) processProduct(ctx context.Context, rc *runContext, p *models.ExternalProduct) models.ProductReport {
	report := models.ProductReport{ProductID: p.ID, Title: p.Title, State: models.StatePending}
	logger := log.With().Str("run_id", rc.run.ID).Str("product_id", p.ID).Logger()

	fail := func(stage models.ProductState, err error) models.ProductReport {
		report.Fail(stage, err)
		logger.Error().Err(err).Str("stage", string(stage)).Msg("product import failed")
		if errors.Is(err, utils.ErrFatalConfig) {
			rc.abort(err)
		}
		return report
	}

	invalid, err := ValidateProduct(p)
	if err != nil {
		return fail(models.StatePending, err)
	}
	if len(EnabledVariants(p)) == 0 {
		report.State = models.StateDone
		report.Warnings = append(report.Warnings, "no enabled variants")
		return report
	}

	group, err := s.reconciler.ResolveGroup(ctx, rc.groupName(p.ID))
	if err != nil {
		return fail(models.StateGroupResolved, err)
	}
	report.GroupID = group.ID
	report.State = models.StateGroupResolved

	rec := &Reconciliation{GroupID: group.ID, GroupUUID: group.UUID}
	rec.Attributes, rec.Axes, err = s.reconciler.ReconcileAttributes(ctx, p, group.ID, invalid)
	report.Axes = rec.Axes
	if err != nil {
		return fail(models.StateAttrsReconciled, err)
	}
	codes := rec.ResolvedCodes()
	if len(codes) == 0 && len(p.Options) > 0 {
		return fail(models.StateAttrsReconciled, fmt.Errorf("%w: no option axis reconciled", utils.ErrValidation))
	}
	report.State = models.StateAttrsReconciled

	vgUUID := ""
	if len(codes) > 0 {
		vgUUID, err = s.bindVariantGroup(ctx, rc, p, group.ID, codes)
		report.VariantGroupUUID = vgUUID
		if err != nil {
			return fail(models.StateVariantGroupBound, err)
		}
	} else {
		report.Warnings = append(report.Warnings, "product has no option axes, variant group skipped")
	}
	report.State = models.StateVariantGroupBound

	report.State = models.StateSubmitting
	prior, err := s.submitted.ListByProduct(p.ID)
	if err != nil {
		return fail(models.StateSubmitting, fmt.Errorf("load submitted variants: %w", err))
	}
	byVariant := make(map[string]*models.SubmittedVariant, len(prior))
	for i := range prior {
		byVariant[prior[i].ExternalVariantID] = &prior[i]
	}

	failed := 0
	for _, item := range TransformAll(p, rec, rc.opts.CategoryID, rc.opts.PrimaryVariants[p.ID]) {
		vr := s.submitVariant(ctx, p, vgUUID, item, byVariant[item.Variant.ID])
		if vr.Status == models.VariantFailed {
			failed++
			if errors.Is(vr.err, utils.ErrFatalConfig) {
				rc.abort(vr.err)
			}
		}
		report.Variants = append(report.Variants, vr.VariantReport)
	}
	if failed == len(report.Variants) {
		return fail(models.StateSubmitting, fmt.Errorf("all %d variants failed", failed))
	}
	report.State = models.StateDone
	logger.Info().Int("variants", len(report.Variants)).Int("failed", failed).Msg("product imported")
	return report
}

func (s *ImportService) bindVariantGroup(ctx context.Context, rc *runContext, p *models.ExternalProduct, groupID string, codes []string) (string, error) {
	if vg, ok := rc.boundGroup(p.ID); ok {
		return vg, nil
	}
	vg, err := s.binder.Bind(ctx, p, groupID, codes)
	if err == nil {
		rc.setBound(p.ID, vg)
	}
	return vg, err
}

type variantOutcome struct {
	models.VariantReport
	err error
}

// submitVariant creates the store product of one variant unless it was
// created by an earlier run, then attaches it to the variant group.
func (s *ImportService) submitVariant(ctx context.Context, p *models.ExternalProduct, vgUUID string, item VariantPayload, prior *models.SubmittedVariant) variantOutcome {
	out := variantOutcome{VariantReport: models.VariantReport{
		VariantID: item.Variant.ID,
		SKU:       item.Variant.SKU,
		Status:    models.VariantSubmitted,
		Warnings:  item.Warnings,
	}}
	failWith := func(err error) variantOutcome {
		out.Status = models.VariantFailed
		out.Error = err.Error()
		out.err = err
		log.Error().Err(err).Str("product_id", p.ID).Str("variant_id", item.Variant.ID).Msg("variant submission failed")
		return out
	}

	if prior == nil {
		if pending, ok := s.unrecorded.get(item.Variant.ID); ok {
			out.ProductUUID = pending.ProductUUID
			if err := s.recordSubmitted(ctx, pending); err != nil {
				return failWith(err)
			}
			prior = pending
		}
	}

	if prior != nil {
		out.ProductUUID = prior.ProductUUID
		if vgUUID == "" || prior.IsMember() {
			out.Status = models.VariantSkipped
			return out
		}
	} else {
		productUUID, err := s.products.CreateProduct(ctx, item.Payload)
		if err != nil {
			return failWith(err)
		}
		out.ProductUUID = productUUID
		now := time.Now().UTC()
		created := &models.SubmittedVariant{
			ExternalVariantID: item.Variant.ID,
			ExternalProductID: p.ID,
			ProductUUID:       productUUID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.recordSubmitted(ctx, created); err != nil {
			return failWith(err)
		}
	}

	if vgUUID == "" {
		return out
	}
	err := s.retry.Do(ctx, "add variant group member", func() error {
		err := s.memberships.AddVariantGroupMember(ctx, vgUUID, out.ProductUUID)
		if errors.Is(err, utils.ErrConflict) {
			return nil
		}
		return err
	})
	if err != nil {
		return failWith(err)
	}
	if err := s.submitted.MarkMember(item.Variant.ID, vgUUID); err != nil {
		out.Warnings = append(out.Warnings, "membership not recorded: "+err.Error())
	}
	return out
}

// recordSubmitted writes the bookkeeping row of a created store product. A
// row that cannot be written is kept in memory so the product is not
// created again.
func (s *ImportService) recordSubmitted(ctx context.Context, v *models.SubmittedVariant) error {
	err := record(ctx, "record submitted variant", func() error { return s.submitted.Upsert(v) })
	if err != nil {
		s.unrecorded.put(v.ExternalVariantID, v)
		return fmt.Errorf("product %s created but not recorded: %w", v.ProductUUID, err)
	}
	s.unrecorded.forget(v.ExternalVariantID)
	return nil
}
