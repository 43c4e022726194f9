package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_import/internal/cache"
	"github.com/GTDGit/catalog_import/internal/config"
	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// AttributeMapping maps surfaced option titles of one attribute to store option ids.
type AttributeMapping struct {
	AttributeID string
	Options     map[string]string
}

// Reconciliation is the store-side identity of one catalog product for a single run.
type Reconciliation struct {
	GroupID    string
	GroupUUID  string
	Attributes map[string]AttributeMapping
	Axes       []models.AxisReport
}

// ResolvedCodes returns the codes of axes that reconciled, in axis order.
func (r *Reconciliation) ResolvedCodes() []string {
	var codes []string
	for _, a := range r.Axes {
		switch a.Action {
		case models.AxisCreated, models.AxisPatched, models.AxisUnchanged:
			codes = append(codes, a.Code)
		}
	}
	return codes
}

// Reconciler makes the store taxonomy cover a catalog product: its attribute
// group, one attribute per option axis, and one option per used value.
type Reconciler struct {
	store  TaxonomyStore
	locker cache.Locker
	retry  RetryPolicy
	flags  config.AttributeConfig
}

// NewReconciler creates a Reconciler.
func NewReconciler(store TaxonomyStore, locker cache.Locker, retry RetryPolicy, flags config.AttributeConfig) *Reconciler {
	return &Reconciler{store: store, locker: locker, retry: retry, flags: flags}
}

// Reconcile resolves the group named groupName (the product id when empty)
// and reconciles every axis of p.
func (r *Reconciler) Reconcile(ctx context.Context, p *models.ExternalProduct, groupName string) (*Reconciliation, error) {
	invalid, err := ValidateProduct(p)
	if err != nil {
		return nil, err
	}
	if groupName == "" {
		groupName = p.ID
	}
	group, err := r.ResolveGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	rec := &Reconciliation{GroupID: group.ID, GroupUUID: group.UUID}
	rec.Attributes, rec.Axes, err = r.ReconcileAttributes(ctx, p, group.ID, invalid)
	return rec, err
}

// ResolveGroup finds the attribute group named name, creating it if absent.
func (r *Reconciler) ResolveGroup(ctx context.Context, name string) (*models.AttributeGroup, error) {
	var group *models.AttributeGroup
	err := r.retry.Do(ctx, "resolve group "+name, func() error {
		var err error
		group, _, err = ensureExists(ctx, r.locker, "group:"+name,
			func(ctx context.Context) (*models.AttributeGroup, error) {
				return r.store.FindGroupByName(ctx, name)
			},
			func(ctx context.Context) (*models.AttributeGroup, error) {
				g, err := r.store.CreateGroup(ctx, name)
				if err == nil {
					log.Info().Str("group", name).Str("group_id", g.ID).Msg("attribute group created")
				}
				return g, err
			},
			nil,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	if group.ID == "" {
		return nil, fmt.Errorf("group %q: %w: store returned no id", name, utils.ErrValidation)
	}
	return group, nil
}

// ReconcileAttributes reconciles each axis of p against the store. Axis
// failures are reported per axis; only a fatal configuration error or a
// cancelled context is returned.
func (r *Reconciler) ReconcileAttributes(ctx context.Context, p *models.ExternalProduct, groupID string, invalid map[int]*ValidationError) (map[string]AttributeMapping, []models.AxisReport, error) {
	enabled := EnabledVariants(p)
	mappings := make(map[string]AttributeMapping, len(p.Options))
	reports := make([]models.AxisReport, 0, len(p.Options))

	for i, opt := range p.Options {
		report := models.AxisReport{Axis: opt.Name, Code: AttributeCode(opt.Type)}
		if verr, bad := invalid[i]; bad {
			report.Action = models.AxisSkipped
			report.Error = verr.Error()
			reports = append(reports, report)
			continue
		}
		used := UsedOptionValues(opt, i, enabled)
		if len(used) == 0 {
			report.Action = models.AxisSkipped
			report.Error = "no enabled variant uses this axis"
			reports = append(reports, report)
			continue
		}

		var attr *models.Attribute
		err := r.retry.Do(ctx, "reconcile attribute "+report.Code, func() error {
			var err error
			attr, err = r.reconcileAxis(ctx, opt, used, groupID, &report)
			return err
		})
		if err != nil {
			report.Action = models.AxisFailed
			report.Added = nil
			report.Error = err.Error()
			reports = append(reports, report)
			log.Error().Err(err).Str("product_id", p.ID).Str("code", report.Code).Msg("attribute reconciliation failed")
			if errors.Is(err, utils.ErrFatalConfig) || ctx.Err() != nil {
				return mappings, reports, err
			}
			continue
		}

		report.AttributeID = attr.ID
		m := AttributeMapping{AttributeID: attr.ID, Options: make(map[string]string, len(used))}
		for _, v := range used {
			for _, o := range attr.Options {
				if o.Text == v.Title {
					m.Options[v.Title] = o.ID
					break
				}
			}
		}
		mappings[report.Code] = m
		reports = append(reports, report)
	}
	return mappings, reports, nil
}

// reconcileAxis creates or extends the attribute for opt and returns a fresh
// read of it.
func (r *Reconciler) reconcileAxis(ctx context.Context, opt models.ExternalOption, used []models.ExternalOptionValue, groupID string, report *models.AxisReport) (*models.Attribute, error) {
	code := report.Code
	find := func(ctx context.Context) (*models.Attribute, error) {
		return r.store.FindAttributeByCode(ctx, code)
	}

	attr, created, err := ensureExists(ctx, r.locker, "attribute:"+code, find,
		func(ctx context.Context) (*models.Attribute, error) {
			flags := r.flags.FlagsFor(opt.Type)
			payload := &models.AttributePayload{
				Name:              code,
				Code:              code,
				Type:              models.AttributeTypeSelect,
				IsRequired:        flags.IsRequired,
				DisplayOnFrontend: flags.DisplayOnFrontend,
				IsFilterable:      flags.IsFilterable,
				Groups:            []string{groupID},
			}
			for _, v := range used {
				payload.Options = append(payload.Options, models.AttributeOption{Text: v.Title})
			}
			if _, err := r.store.CreateAttribute(ctx, payload); err != nil {
				return nil, err
			}
			return r.reread(ctx, code)
		},
		func(ctx context.Context, existing *models.Attribute) (*models.Attribute, error) {
			return r.extendAttribute(ctx, existing, used, groupID, report)
		},
	)
	if err != nil {
		return nil, err
	}
	if created {
		report.Action = models.AxisCreated
		for _, v := range used {
			report.Added = append(report.Added, v.Title)
		}
		log.Info().Str("code", code).Int("options", len(used)).Msg("attribute created")
	}
	return attr, nil
}

// extendAttribute patches existing with the option titles it lacks and links
// it to groupID. Nothing is written when the attribute already covers both.
func (r *Reconciler) extendAttribute(ctx context.Context, existing *models.Attribute, used []models.ExternalOptionValue, groupID string, report *models.AxisReport) (*models.Attribute, error) {
	var missing []string
	for _, v := range used {
		if !existing.HasOptionText(v.Title) {
			missing = append(missing, v.Title)
		}
	}
	linked := false
	for _, g := range existing.Groups {
		if g == groupID {
			linked = true
			break
		}
	}
	if len(missing) == 0 && linked {
		report.Action = models.AxisUnchanged
		return existing, nil
	}

	payload := &models.AttributePayload{
		Name:              existing.Name,
		Code:              existing.Code,
		Type:              existing.Type,
		IsRequired:        existing.IsRequired,
		DisplayOnFrontend: existing.DisplayOnFrontend,
		IsFilterable:      existing.IsFilterable,
		Options:           append([]models.AttributeOption(nil), existing.Options...),
		Groups:            append([]string(nil), existing.Groups...),
	}
	if !linked {
		payload.Groups = append(payload.Groups, groupID)
	}
	for _, t := range missing {
		payload.Options = append(payload.Options, models.AttributeOption{Text: t})
	}
	if _, err := r.store.PatchAttribute(ctx, existing.ID, payload); err != nil {
		return nil, err
	}
	report.Action = models.AxisPatched
	report.Added = missing
	log.Info().Str("code", existing.Code).Strs("added", missing).Msg("attribute patched")
	return r.reread(ctx, existing.Code)
}

func (r *Reconciler) reread(ctx context.Context, code string) (*models.Attribute, error) {
	attr, err := r.store.FindAttributeByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, fmt.Errorf("attribute %s: %w: not visible after write", code, utils.ErrTransientRemote)
	}
	return attr, nil
}

// ensureExists looks up a record under a per-key lock and creates it when
// absent. A create that conflicts with a concurrent writer falls back to the
// lookup. When the record already exists, update (if set) runs under the same
// lock.
func ensureExists[T any](
	ctx context.Context,
	locker cache.Locker,
	key string,
	find func(context.Context) (*T, error),
	create func(context.Context) (*T, error),
	update func(context.Context, *T) (*T, error),
) (rec *T, created bool, err error) {
	unlock, err := locker.Lock(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", key, err)
	}
	defer unlock()

	rec, err = find(ctx)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		rec, err = create(ctx)
		if err == nil {
			return rec, true, nil
		}
		if !errors.Is(err, utils.ErrConflict) {
			return nil, false, err
		}
		log.Warn().Str("key", key).Msg("create conflicted, looking up existing record")
		if rec, err = find(ctx); err != nil {
			return nil, false, err
		}
		if rec == nil {
			return nil, false, fmt.Errorf("%s: %w: conflicting record not visible", key, utils.ErrTransientRemote)
		}
	}
	if update != nil {
		rec, err = update(ctx, rec)
	}
	return rec, false, err
}
