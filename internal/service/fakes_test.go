package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/GTDGit/catalog_import/internal/cache"
	"github.com/GTDGit/catalog_import/internal/config"
	"github.com/GTDGit/catalog_import/internal/models"
	"github.com/GTDGit/catalog_import/internal/sse"
	"github.com/GTDGit/catalog_import/internal/utils"
)

// fakeStore is an in-memory store implementing every store interface.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	groups  []models.AttributeGroup
	attrs   []models.Attribute
	vgs     map[string][]string // variant group uuid -> member product uuids
	vgCodes map[string][]string
	prods   map[string]*models.ProductPayload

	writes          int
	groupCreates    int
	attrCreates     int
	attrPatches     int
	vgCreates       int
	productCreates  int
	memberAdds      int
	failAttrCreate  map[string]error
	failProductSKU  map[string]error
	failMembership  error
	transientCreate int // fail the next n group creates with a transient error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vgs:            make(map[string][]string),
		vgCodes:        make(map[string][]string),
		prods:          make(map[string]*models.ProductPayload),
		failAttrCreate: make(map[string]error),
		failProductSKU: make(map[string]error),
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeStore) ListGroups(context.Context) ([]models.AttributeGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AttributeGroup(nil), f.groups...), nil
}

func (f *fakeStore) FindGroupByName(_ context.Context, name string) (*models.AttributeGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.Name == name {
			g := g
			return &g, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateGroup(_ context.Context, name string) (*models.AttributeGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transientCreate > 0 {
		f.transientCreate--
		return nil, fmt.Errorf("create group: %w", utils.ErrTransientRemote)
	}
	for _, g := range f.groups {
		if g.Name == name {
			return nil, fmt.Errorf("create group: %w", utils.ErrConflict)
		}
	}
	id := f.id()
	g := models.AttributeGroup{ID: id, UUID: "g-" + id, Name: name}
	f.groups = append(f.groups, g)
	f.writes++
	f.groupCreates++
	return &g, nil
}

func (f *fakeStore) RenameGroup(_ context.Context, uuid, name string) (*models.AttributeGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.groups {
		if f.groups[i].UUID == uuid {
			f.groups[i].Name = name
			f.writes++
			g := f.groups[i]
			return &g, nil
		}
	}
	return nil, utils.ErrGroupNotFound
}

func (f *fakeStore) DeleteGroup(_ context.Context, uuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.groups {
		if f.groups[i].UUID == uuid {
			f.groups = append(f.groups[:i], f.groups[i+1:]...)
			f.writes++
			return nil
		}
	}
	return utils.ErrGroupNotFound
}

func (f *fakeStore) ListAttributes(context.Context) ([]models.Attribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Attribute, 0, len(f.attrs))
	for _, a := range f.attrs {
		out = append(out, copyAttr(a))
	}
	return out, nil
}

func (f *fakeStore) FindAttributeByCode(_ context.Context, code string) (*models.Attribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attrs {
		if a.Code == code {
			c := copyAttr(a)
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateAttribute(_ context.Context, p *models.AttributePayload) (*models.Attribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failAttrCreate[p.Code]; err != nil {
		return nil, err
	}
	for _, a := range f.attrs {
		if a.Code == p.Code {
			return nil, fmt.Errorf("create attribute: %w", utils.ErrConflict)
		}
	}
	id := f.id()
	a := models.Attribute{
		ID: id, UUID: "a-" + id, Code: p.Code, Name: p.Name, Type: p.Type,
		IsRequired: p.IsRequired, DisplayOnFrontend: p.DisplayOnFrontend, IsFilterable: p.IsFilterable,
		Groups: append([]string(nil), p.Groups...),
	}
	for _, o := range p.Options {
		a.Options = append(a.Options, models.AttributeOption{ID: f.id(), Text: o.Text})
	}
	f.attrs = append(f.attrs, a)
	f.writes++
	f.attrCreates++
	return &models.Attribute{ID: a.ID, UUID: a.UUID, Code: a.Code}, nil
}

func (f *fakeStore) PatchAttribute(_ context.Context, id string, p *models.AttributePayload) (*models.Attribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.attrs {
		if f.attrs[i].ID != id {
			continue
		}
		a := &f.attrs[i]
		a.Name, a.Type = p.Name, p.Type
		a.IsRequired, a.DisplayOnFrontend, a.IsFilterable = p.IsRequired, p.DisplayOnFrontend, p.IsFilterable
		a.Groups = append([]string(nil), p.Groups...)
		var opts []models.AttributeOption
		for _, o := range p.Options {
			if o.ID == "" {
				o.ID = f.id()
			}
			opts = append(opts, o)
		}
		a.Options = opts
		f.writes++
		f.attrPatches++
		return &models.Attribute{ID: a.ID, UUID: a.UUID, Code: a.Code}, nil
	}
	return nil, fmt.Errorf("patch attribute: %w", utils.ErrValidation)
}

func (f *fakeStore) CreateVariantGroup(_ context.Context, codes []string, groupID string) (*models.VariantGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uuid := "vg-" + f.id()
	f.vgs[uuid] = nil
	f.vgCodes[uuid] = codes
	f.writes++
	f.vgCreates++
	return &models.VariantGroup{UUID: uuid, AttributeCodes: codes, AttributeGroupID: groupID}, nil
}

func (f *fakeStore) AddVariantGroupMember(_ context.Context, vgUUID, productUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMembership != nil {
		return f.failMembership
	}
	for _, m := range f.vgs[vgUUID] {
		if m == productUUID {
			return fmt.Errorf("add member: %w", utils.ErrConflict)
		}
	}
	f.vgs[vgUUID] = append(f.vgs[vgUUID], productUUID)
	f.writes++
	f.memberAdds++
	return nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p *models.ProductPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failProductSKU[p.SKU]; err != nil {
		return "", err
	}
	uuid := "p-" + f.id()
	f.prods[uuid] = p
	f.writes++
	f.productCreates++
	return uuid, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, uuid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.prods[uuid]; !ok {
		return fmt.Errorf("delete product %s: %w", uuid, utils.ErrValidation)
	}
	delete(f.prods, uuid)
	f.writes++
	return nil
}

func (f *fakeStore) ListCategories(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "5", UUID: "c-5", Name: "Shirts", Status: true}}, nil
}

func (f *fakeStore) attr(code string) *models.Attribute {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attrs {
		if a.Code == code {
			c := copyAttr(a)
			return &c
		}
	}
	return nil
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func copyAttr(a models.Attribute) models.Attribute {
	a.Options = append([]models.AttributeOption(nil), a.Options...)
	a.Groups = append([]string(nil), a.Groups...)
	return a
}

type fakeCatalog struct {
	products []models.ExternalProduct
	err      error
	calls    int
}

func (f *fakeCatalog) ListProducts(context.Context) ([]models.ExternalProduct, error) {
	f.calls++
	return f.products, f.err
}

type fakeBindings struct {
	mu   sync.Mutex
	rows map[string]models.VariantGroupBinding
	err  error
}

func newFakeBindings() *fakeBindings {
	return &fakeBindings{rows: make(map[string]models.VariantGroupBinding)}
}

func (f *fakeBindings) FindByProduct(id string) (*models.VariantGroupBinding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeBindings) Create(b *models.VariantGroupBinding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows[b.ExternalProductID] = *b
	return nil
}

type fakeSubmitted struct {
	mu        sync.Mutex
	rows      map[string]models.SubmittedVariant
	upsertErr error
}

func newFakeSubmitted() *fakeSubmitted {
	return &fakeSubmitted{rows: make(map[string]models.SubmittedVariant)}
}

func (f *fakeSubmitted) ListByProduct(productID string) ([]models.SubmittedVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SubmittedVariant
	for _, r := range f.rows {
		if r.ExternalProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSubmitted) Upsert(v *models.SubmittedVariant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[v.ExternalVariantID] = *v
	return nil
}

func (f *fakeSubmitted) MarkMember(variantID, vgUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.rows[variantID]
	r.VariantGroupUUID = &vgUUID
	f.rows[variantID] = r
	return nil
}

func (f *fakeSubmitted) DeleteByProductUUID(productUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, r := range f.rows {
		if r.ProductUUID == productUUID {
			delete(f.rows, k)
		}
	}
	return nil
}

type fakeRuns struct {
	mu   sync.Mutex
	rows map[string]models.ImportRun
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{rows: make(map[string]models.ImportRun)}
}

func (f *fakeRuns) Create(run *models.ImportRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[run.ID] = *run
	return nil
}

func (f *fakeRuns) Finish(run *models.ImportRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *run
	r.Products = nil
	f.rows[run.ID] = r
	return nil
}

func (f *fakeRuns) GetByID(id string) (*models.ImportRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (f *fakeRuns) List(limit, offset int) ([]models.ImportRun, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ImportRun
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, len(out), nil
}

var allFlags = config.AttributeConfig{
	Defaults: config.AttributeFlags{IsRequired: true, DisplayOnFrontend: true, IsFilterable: true},
}

func testRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, Base: time.Millisecond}
}

// harness wires an ImportService over in-memory fakes.
type harness struct {
	store     *fakeStore
	catalog   *fakeCatalog
	bindings  *fakeBindings
	submitted *fakeSubmitted
	runs      *fakeRuns
	locker    *cache.LocalLocker
	hub       *sse.Hub
	svc       *ImportService
}

func newHarness(products ...models.ExternalProduct) *harness {
	h := &harness{
		store:     newFakeStore(),
		catalog:   &fakeCatalog{products: products},
		bindings:  newFakeBindings(),
		submitted: newFakeSubmitted(),
		runs:      newFakeRuns(),
		locker:    cache.NewLocalLocker(),
		hub:       sse.NewHub(),
	}
	h.svc = NewImportService(context.Background(), ImportServiceDeps{
		Catalog:     h.catalog,
		Reconciler:  NewReconciler(h.store, h.locker, testRetry(), allFlags),
		Binder:      NewVariantGroupBinder(h.store, h.bindings, h.submitted, h.locker),
		Products:    h.store,
		Memberships: h.store,
		Runs:        h.runs,
		Submitted:   h.submitted,
		RunLocker:   h.locker,
		RunLockKey:  "shop-1",
		Retry:       testRetry(),
		Concurrency: 4,
		Notifier:    sse.NewHubNotifier(h.hub),
	})
	return h
}

// tee builds a t-shirt with colors x sizes; variant ids are "<color><size>".
func tee(id string, colors, sizes []string, disabled ...string) models.ExternalProduct {
	p := models.ExternalProduct{
		ID:          id,
		Title:       "Classic Tee",
		Description: "<p>Soft &amp; light cotton. Machine washable.</p>",
		Tags:        []string{"T-shirts", "Cotton"},
	}
	color := models.ExternalOption{Name: "Colors", Type: "color"}
	for i, c := range colors {
		color.Values = append(color.Values, models.ExternalOptionValue{ID: "c" + strconv.Itoa(i), Title: c})
	}
	size := models.ExternalOption{Name: "Sizes", Type: "size"}
	for i, s := range sizes {
		size.Values = append(size.Values, models.ExternalOptionValue{ID: "s" + strconv.Itoa(i), Title: s})
	}
	p.Options = []models.ExternalOption{color, size}

	off := make(map[string]bool)
	for _, d := range disabled {
		off[d] = true
	}
	for ci, c := range colors {
		for si, s := range sizes {
			vid := id + "-" + c + s
			p.Variants = append(p.Variants, models.ExternalVariant{
				ID:        vid,
				SKU:       "SKU-" + vid,
				Title:     c + " / " + s,
				Price:     2599,
				Grams:     150,
				IsEnabled: !off[vid],
				OptionIDs: []string{"c" + strconv.Itoa(ci), "s" + strconv.Itoa(si)},
			})
		}
	}
	p.Images = []models.ExternalImage{
		{Src: "https://images.printify.com/front.png", VariantIDs: []string{id + "-" + colors[0] + sizes[0]}},
	}
	return p
}
