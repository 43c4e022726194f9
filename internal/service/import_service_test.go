package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/sse"
	"github.com/GTDGit/catalog_import/internal/utils"
)

func reportFor(t *testing.T, run *models.ImportRun, productID string) models.ProductReport {
	t.Helper()
	for _, r := range run.Products {
		if r.ProductID == productID {
			return r
		}
	}
	t.Fatalf("no report for %s", productID)
	return models.ProductReport{}
}

func TestRunImportsCatalog(t *testing.T) {
	h := newHarness(
		tee("p1", []string{"Black", "White"}, []string{"S", "M"}, "p1-WhiteM"),
		tee("p2", []string{"Red"}, []string{"L"}),
	)

	run, err := h.svc.Run(context.Background(), RunOptions{Trigger: "test"})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, 0, run.Failed)
	assert.NotNil(t, run.FinishedAt)

	r1 := reportFor(t, run, "p1")
	assert.Equal(t, models.StateDone, r1.State)
	assert.Len(t, r1.Variants, 3, "disabled variant is not submitted")
	assert.NotEmpty(t, r1.VariantGroupUUID)

	assert.Equal(t, 4, h.store.productCreates)
	assert.Equal(t, 2, h.store.vgCreates)
	assert.Len(t, h.store.vgs[r1.VariantGroupUUID], 3)

	visible := 0
	for _, p := range h.store.prods {
		if p.Visibility == models.VisibilityVisible {
			visible++
		}
		assert.Len(t, p.Attributes, 2)
	}
	assert.Equal(t, 2, visible, "one visible variant per product")

	stored, err := h.svc.GetRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Products, 2)
}

func TestSecondRunWritesNothing(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black", "White"}, []string{"S", "M"}))

	_, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	writes := h.store.writeCount()

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, writes, h.store.writeCount())
	assert.Equal(t, 1, h.store.vgCreates, "at most one variant group per product across runs")

	for _, v := range reportFor(t, run, "p1").Variants {
		assert.Equal(t, models.VariantSkipped, v.Status)
	}
}

func TestRunExtendsOptionsForNewlyEnabledVariants(t *testing.T) {
	p := tee("p1", []string{"Black", "White"}, []string{"S"}, "p1-WhiteS")
	h := newHarness(p)

	_, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Black"}, optionTexts(h.store.attr("COLOR")))

	h.catalog.products[0].Variants[1].IsEnabled = true
	_, err = h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Black", "White"}, optionTexts(h.store.attr("COLOR")))
	assert.Equal(t, 2, h.store.productCreates)
	assert.Equal(t, 1, h.store.vgCreates)
}

func TestVariantFailureDoesNotHaltSiblings(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black", "White"}, []string{"S"}))
	h.store.failProductSKU["SKU-p1-BlackS"] = fmt.Errorf("create product: %w", utils.ErrValidation)

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	r := reportFor(t, run, "p1")
	assert.Equal(t, models.StateDone, r.State)
	require.Len(t, r.Variants, 2)
	assert.Equal(t, models.VariantFailed, r.Variants[0].Status)
	assert.Equal(t, models.VariantSubmitted, r.Variants[1].Status)

	// The failed variant is retried by the next run; the submitted one is skipped.
	delete(h.store.failProductSKU, "SKU-p1-BlackS")
	run, err = h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	r = reportFor(t, run, "p1")
	assert.Equal(t, models.VariantSubmitted, r.Variants[0].Status)
	assert.Equal(t, models.VariantSkipped, r.Variants[1].Status)
	assert.Equal(t, 2, h.store.productCreates)
}

func TestAllVariantsFailingFailsProduct(t *testing.T) {
	h := newHarness(
		tee("p1", []string{"Black"}, []string{"S"}),
		tee("p2", []string{"Black"}, []string{"M"}),
	)
	h.store.failProductSKU["SKU-p1-BlackS"] = fmt.Errorf("create product: %w", utils.ErrValidation)

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPartial, run.Status)
	r1 := reportFor(t, run, "p1")
	assert.Equal(t, models.StateFailed, r1.State)
	assert.Equal(t, models.StateSubmitting, r1.FailedStage)
	assert.Equal(t, models.StateDone, reportFor(t, run, "p2").State)
}

func TestAllAxesFailingFailsProduct(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))
	h.store.failAttrCreate["COLOR"] = fmt.Errorf("create attribute: %w", utils.ErrValidation)
	h.store.failAttrCreate["SIZE"] = fmt.Errorf("create attribute: %w", utils.ErrValidation)

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	r := reportFor(t, run, "p1")
	assert.Equal(t, models.StateFailed, r.State)
	assert.Equal(t, models.StateAttrsReconciled, r.FailedStage)
	assert.Equal(t, 0, h.store.vgCreates)
	assert.Equal(t, models.RunStatusFailed, run.Status)
}

func TestPartialAxisFailureBindsResolvedAxes(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))
	h.store.failAttrCreate["SIZE"] = fmt.Errorf("create attribute: %w", utils.ErrValidation)

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	r := reportFor(t, run, "p1")
	assert.Equal(t, models.StateDone, r.State)
	assert.Equal(t, []string{"COLOR"}, h.store.vgCodes[r.VariantGroupUUID])
	require.Len(t, r.Variants, 1)
	assert.NotEmpty(t, r.Variants[0].Warnings, "dropped SIZE binding is reported")
}

func TestMembershipFailureIsRetriedNextRun(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))
	h.store.failMembership = fmt.Errorf("add member: %w", utils.ErrValidation)

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, reportFor(t, run, "p1").State)

	h.store.failMembership = nil
	run, err = h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StateDone, reportFor(t, run, "p1").State)
	assert.Equal(t, 1, h.store.productCreates, "product is not created twice")
	assert.Equal(t, 1, h.store.memberAdds)
}

func TestUnpersistedBindingFailsProductAndIsReused(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S", "M"}))
	h.bindings.err = errors.New("db down")

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	r := reportFor(t, run, "p1")
	assert.Equal(t, models.StateFailed, r.State)
	assert.Equal(t, models.StateVariantGroupBound, r.FailedStage)
	assert.NotEmpty(t, r.VariantGroupUUID)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, 0, h.store.productCreates)

	h.bindings.err = nil
	run, err = h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	r2 := reportFor(t, run, "p1")
	assert.Equal(t, models.StateDone, r2.State)
	assert.Equal(t, r.VariantGroupUUID, r2.VariantGroupUUID)
	assert.Equal(t, 1, h.store.vgCreates, "one variant group across runs")
	assert.Len(t, h.store.vgs[r2.VariantGroupUUID], 2)
}

func TestUnrecordedProductIsNotCreatedTwice(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))
	h.submitted.upsertErr = errors.New("db down")

	run, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	r := reportFor(t, run, "p1")
	assert.Equal(t, models.StateFailed, r.State)
	require.Len(t, r.Variants, 1)
	assert.Equal(t, models.VariantFailed, r.Variants[0].Status)
	assert.NotEmpty(t, r.Variants[0].ProductUUID)

	h.submitted.upsertErr = nil
	run, err = h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	r2 := reportFor(t, run, "p1")
	assert.Equal(t, models.StateDone, r2.State)
	assert.Equal(t, r.Variants[0].ProductUUID, r2.Variants[0].ProductUUID)
	assert.Equal(t, 1, h.store.productCreates)
	assert.Equal(t, 1, h.store.memberAdds)

	rows, err := h.submitted.ListByProduct("p1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsMember())
}

func TestRunHonoursOperatorOptions(t *testing.T) {
	h := newHarness(
		tee("p1", []string{"Black", "White"}, []string{"S"}),
		tee("p2", []string{"Red"}, []string{"S"}),
	)
	cat := "5"

	run, err := h.svc.Run(context.Background(), RunOptions{
		ProductIDs:      []string{"p1"},
		GroupNames:      map[string]string{"p1": "Tees"},
		PrimaryVariants: map[string]string{"p1": "p1-WhiteS"},
		CategoryID:      &cat,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Total)

	g, _ := h.store.FindGroupByName(context.Background(), "Tees")
	require.NotNil(t, g)
	for _, p := range h.store.prods {
		assert.Equal(t, &cat, p.CategoryID)
		assert.Equal(t, g.ID, p.GroupID)
		if p.SKU == "SKU-p1-WhiteS" {
			assert.Equal(t, models.VisibilityVisible, p.Visibility)
		} else {
			assert.Equal(t, models.VisibilityHidden, p.Visibility)
		}
	}
}

func TestRunRejectsMissingConfig(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))
	h.svc.validate = func() error { return errors.New("missing configuration: PRINTIFY_API_KEY") }

	run, err := h.svc.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, utils.ErrFatalConfig)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, 0, h.catalog.calls)
	assert.Equal(t, 0, h.store.writeCount())
}

func TestFatalStoreErrorStopsNewProducts(t *testing.T) {
	products := make([]models.ExternalProduct, 0, 6)
	for i := 0; i < 6; i++ {
		products = append(products, tee(fmt.Sprintf("p%d", i), []string{"Black"}, []string{"S"}))
	}
	h := newHarness(products...)
	h.svc.concurrency = 1
	h.store.failAttrCreate["COLOR"] = fmt.Errorf("create attribute: %w", utils.ErrFatalConfig)

	run, err := h.svc.Run(context.Background(), RunOptions{})
	assert.ErrorIs(t, err, utils.ErrFatalConfig)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, 6, run.Failed)
	assert.Equal(t, 1, h.store.groupCreates, "no product starts after the fatal error")
}

func TestCancelledRunStartsNothing(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := h.svc.Run(ctx, RunOptions{})
	require.Error(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Equal(t, 0, h.store.writeCount())
}

func TestRunLockRejectsConcurrentRuns(t *testing.T) {
	h := newHarness(tee("p1", []string{"Black"}, []string{"S"}))

	unlock, err := h.locker.TryLock(context.Background(), "run:shop-1")
	require.NoError(t, err)
	_, err = h.svc.Start(RunOptions{})
	assert.ErrorIs(t, err, utils.ErrImportRunning)
	unlock()
}

func TestGetRunNotFound(t *testing.T) {
	h := newHarness()
	_, err := h.svc.GetRun("missing")
	assert.ErrorIs(t, err, utils.ErrRunNotFound)
}

func TestRunStreamsProgress(t *testing.T) {
	h := newHarness(
		tee("p1", []string{"Black"}, []string{"S"}),
		tee("p2", []string{"Red"}, []string{"L"}),
	)
	client := h.hub.Register("watcher")
	defer h.hub.Unregister("watcher")

	_, err := h.svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	var events []sse.ImportEvent
	for len(client.Events) > 0 {
		var ev sse.ImportEvent
		require.NoError(t, json.Unmarshal(<-client.Events, &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 4)
	assert.Equal(t, sse.EventRunStarted, events[0].Event)
	assert.Equal(t, sse.EventProductFinished, events[1].Event)
	assert.Equal(t, sse.EventProductFinished, events[2].Event)
	assert.Equal(t, sse.EventRunFinished, events[3].Event)
	assert.Equal(t, "success", events[3].Status)
	assert.Equal(t, 2, events[3].Succeeded)
}
