package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"tookio/internal/infra"
	"tookio/internal/model"
	"tookio/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for Postgres. Transaction holds the write
// lock for the whole callback and restores a snapshot when fn fails, which
// gives the same all-or-nothing visibility as a real transaction. *Tx methods
// assume the lock is already held; the others take the read lock.
type memStore struct {
	mu        sync.RWMutex
	items     map[uuid.UUID]model.Item
	ledger    []model.StockLedgerEntry
	history   []model.ItemPriceHistory
	sales     map[uuid.UUID]model.SaleHeader
	purchases map[uuid.UUID]model.PurchaseHeader

	// failLedger, when set, is consulted before every ledger insert
	failLedger func(e model.StockLedgerEntry) error
	// failLookup, when set, is returned by every idempotency-key lookup
	failLookup error
}

func newMemStore() *memStore {
	return &memStore{
		items:     map[uuid.UUID]model.Item{},
		sales:     map[uuid.UUID]model.SaleHeader{},
		purchases: map[uuid.UUID]model.PurchaseHeader{},
	}
}

type memSnapshot struct {
	items     map[uuid.UUID]model.Item
	ledger    []model.StockLedgerEntry
	history   []model.ItemPriceHistory
	sales     map[uuid.UUID]model.SaleHeader
	purchases map[uuid.UUID]model.PurchaseHeader
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		items:     make(map[uuid.UUID]model.Item, len(m.items)),
		ledger:    append([]model.StockLedgerEntry(nil), m.ledger...),
		history:   append([]model.ItemPriceHistory(nil), m.history...),
		sales:     make(map[uuid.UUID]model.SaleHeader, len(m.sales)),
		purchases: make(map[uuid.UUID]model.PurchaseHeader, len(m.purchases)),
	}
	for k, v := range m.items {
		s.items[k] = v
	}
	for k, v := range m.sales {
		s.sales[k] = v
	}
	for k, v := range m.purchases {
		s.purchases[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.items, m.ledger, m.history, m.sales, m.purchases = s.items, s.ledger, s.history, s.sales, s.purchases
}

func (m *memStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(nil); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// seedItem inserts an item directly, booking its stock as an "in" entry so
// the ledger invariant holds from the start.
func (m *memStore) seedItem(shopID uuid.UUID, name string, stock int) model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	it := model.Item{
		ID:                uuid.New(),
		ShopID:            shopID,
		Name:              name,
		CurrentStock:      stock,
		LowStockThreshold: 2,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.items[it.ID] = it
	if stock > 0 {
		m.ledger = append(m.ledger, model.StockLedgerEntry{
			ID: uuid.New(), ItemID: it.ID, Kind: model.KindIn,
			SignedQuantity: stock, StockBefore: 0, StockAfter: stock,
			Reason: "seed", CreatedAt: now,
		})
	}
	return it
}

func (m *memStore) stockOf(id uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id].CurrentStock
}

func (m *memStore) entriesFor(id uuid.UUID) []model.StockLedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.StockLedgerEntry
	for _, e := range m.ledger {
		if e.ItemID == id {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) ledgerSum(id uuid.UUID) int {
	sum := 0
	for _, e := range m.entriesFor(id) {
		sum += e.SignedQuantity
	}
	return sum
}

func (m *memStore) saleCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sales)
}

func (m *memStore) purchaseCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.purchases)
}

func page[T any](rows []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(rows)
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ── items ────────────────────────────────────────────────────────────────────

type memItems struct{ *memStore }

var _ repository.ItemRepository = memItems{}

func (r memItems) CreateTx(_ *gorm.DB, item *model.Item) error {
	r.items[item.ID] = *item
	return nil
}

func (r memItems) FindByID(_ context.Context, shopID, id uuid.UUID) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok || it.ShopID != shopID {
		return nil, gorm.ErrRecordNotFound
	}
	return &it, nil
}

func (r memItems) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &it, nil
}

func (r memItems) FindForUpdateTx(_ *gorm.DB, shopID, id uuid.UUID) (*model.Item, error) {
	it, ok := r.items[id]
	if !ok || it.ShopID != shopID {
		return nil, gorm.ErrRecordNotFound
	}
	return &it, nil
}

func (r memItems) FindByIDs(_ context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Item
	for _, id := range ids {
		if it, ok := r.items[id]; ok && it.ShopID == shopID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r memItems) List(_ context.Context, shopID uuid.UUID, f repository.ItemListFilter) ([]model.Item, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Item
	for _, it := range r.items {
		if it.ShopID != shopID {
			continue
		}
		switch f.Active {
		case "false":
			if it.Active {
				continue
			}
		case "all":
		default:
			if !it.Active {
				continue
			}
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Name)) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, f.Page, f.Limit), int64(len(out)), nil
}

func (r memItems) ListByShop(_ context.Context, shopID uuid.UUID) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Item
	for _, it := range r.items {
		if it.ShopID == shopID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r memItems) ListLowStock(_ context.Context, shopID uuid.UUID) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Item
	for _, it := range r.items {
		if it.ShopID == shopID && it.Active && it.IsLowStock() {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrentStock < out[j].CurrentStock })
	return out, nil
}

func (r memItems) UpdateMetadataTx(_ *gorm.DB, item *model.Item) error {
	cur, ok := r.items[item.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cur.Name = item.Name
	cur.Description = item.Description
	cur.UnitPrice = item.UnitPrice
	cur.CostPrice = item.CostPrice
	cur.LowStockThreshold = item.LowStockThreshold
	cur.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = cur
	return nil
}

func (r memItems) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.items[id]
	cur.Active = active
	r.items[id] = cur
	return nil
}

func (r memItems) ApplyStockDeltaTx(_ *gorm.DB, id uuid.UUID, delta int) (int, error) {
	cur, ok := r.items[id]
	if next := int64(cur.CurrentStock) + int64(delta); !ok || next < 0 || next > math.MaxInt32 {
		return 0, repository.ErrStockGuard
	}
	cur.CurrentStock += delta
	r.items[id] = cur
	return cur.CurrentStock, nil
}

// ── ledger ───────────────────────────────────────────────────────────────────

type memLedger struct{ *memStore }

var _ repository.LedgerRepository = memLedger{}

func (r memLedger) CreateTx(_ *gorm.DB, e *model.StockLedgerEntry) error {
	if r.failLedger != nil {
		if err := r.failLedger(*e); err != nil {
			return err
		}
	}
	if e.SignedQuantity == 0 || e.StockAfter < 0 || e.StockAfter != e.StockBefore+e.SignedQuantity {
		return gorm.ErrCheckConstraintViolated
	}
	r.ledger = append(r.ledger, *e)
	return nil
}

func (r memLedger) List(_ context.Context, f repository.LedgerFilter) ([]model.StockLedgerEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.StockLedgerEntry
	for i := len(r.ledger) - 1; i >= 0; i-- {
		e := r.ledger[i]
		if e.ItemID != f.ItemID || (f.Kind != "" && string(e.Kind) != f.Kind) {
			continue
		}
		out = append(out, e)
	}
	return page(out, f.Page, f.Limit), int64(len(out)), nil
}

func (r memLedger) SumByItems(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := map[uuid.UUID]int{}
	for _, e := range r.ledger {
		if want[e.ItemID] {
			out[e.ItemID] += e.SignedQuantity
		}
	}
	return out, nil
}

// ── price history ────────────────────────────────────────────────────────────

type memHistory struct{ *memStore }

func (r memHistory) CreateTx(_ *gorm.DB, h *model.ItemPriceHistory) error {
	r.history = append(r.history, *h)
	return nil
}

func (r memHistory) ListByItem(_ context.Context, itemID uuid.UUID, p, limit int) ([]model.ItemPriceHistory, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ItemPriceHistory
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ItemID == itemID {
			out = append(out, r.history[i])
		}
	}
	return page(out, p, limit), int64(len(out)), nil
}

// ── sales ────────────────────────────────────────────────────────────────────

type memSales struct{ *memStore }

var _ repository.SaleRepository = memSales{}

func (r memSales) withItems(s model.SaleHeader) *model.SaleHeader {
	lines := make([]model.SaleLine, len(s.Lines))
	for i, l := range s.Lines {
		it := r.items[l.ItemID]
		l.Item = &it
		lines[i] = l
	}
	s.Lines = lines
	return &s
}

func (r memSales) CreateTx(_ *gorm.DB, s *model.SaleHeader) error {
	if s.IdempotencyKey != nil {
		for _, other := range r.sales {
			if other.ShopID == s.ShopID && other.IdempotencyKey != nil && *other.IdempotencyKey == *s.IdempotencyKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	stored := *s
	stored.Lines = append([]model.SaleLine(nil), s.Lines...)
	r.sales[s.ID] = stored
	return nil
}

func (r memSales) FindByID(_ context.Context, shopID, id uuid.UUID) (*model.SaleHeader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failLookup != nil {
		return nil, r.failLookup
	}
	s, ok := r.sales[id]
	if !ok || s.ShopID != shopID {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItems(s), nil
}

func (r memSales) FindForUpdateTx(_ *gorm.DB, shopID, id uuid.UUID) (*model.SaleHeader, error) {
	s, ok := r.sales[id]
	if !ok || s.ShopID != shopID {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItems(s), nil
}

func (r memSales) FindByIdempotencyKey(_ context.Context, shopID uuid.UUID, key string) (*model.SaleHeader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sales {
		if s.ShopID == shopID && s.IdempotencyKey != nil && *s.IdempotencyKey == key {
			return r.withItems(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memSales) List(_ context.Context, shopID uuid.UUID, f repository.SaleListFilter) ([]model.SaleHeader, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.SaleHeader
	for _, s := range r.sales {
		if s.ShopID != shopID {
			continue
		}
		if f.Status != "" && f.Status != "all" && s.Status != f.Status {
			continue
		}
		if (f.From != nil && s.SaleDate.Before(*f.From)) || (f.To != nil && s.SaleDate.After(*f.To)) {
			continue
		}
		out = append(out, *r.withItems(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return page(out, f.Page, f.Limit), int64(len(out)), nil
}

func (r memSales) MarkVoidedTx(_ *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = model.SaleStatusVoided
	s.VoidReason = &reason
	s.VoidedAt = &at
	r.sales[id] = s
	return nil
}

// ── purchases ────────────────────────────────────────────────────────────────

type memPurchases struct{ *memStore }

var _ repository.PurchaseRepository = memPurchases{}

func (r memPurchases) withItems(p model.PurchaseHeader) *model.PurchaseHeader {
	lines := make([]model.PurchaseLine, len(p.Lines))
	for i, l := range p.Lines {
		it := r.items[l.ItemID]
		l.Item = &it
		lines[i] = l
	}
	p.Lines = lines
	return &p
}

func (r memPurchases) CreateTx(_ *gorm.DB, p *model.PurchaseHeader) error {
	if p.IdempotencyKey != nil {
		for _, other := range r.purchases {
			if other.ShopID == p.ShopID && other.IdempotencyKey != nil && *other.IdempotencyKey == *p.IdempotencyKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	stored := *p
	stored.Lines = append([]model.PurchaseLine(nil), p.Lines...)
	r.purchases[p.ID] = stored
	return nil
}

func (r memPurchases) FindByID(_ context.Context, shopID, id uuid.UUID) (*model.PurchaseHeader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failLookup != nil {
		return nil, r.failLookup
	}
	p, ok := r.purchases[id]
	if !ok || p.ShopID != shopID {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItems(p), nil
}

func (r memPurchases) FindByIdempotencyKey(_ context.Context, shopID uuid.UUID, key string) (*model.PurchaseHeader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.purchases {
		if p.ShopID == shopID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			return r.withItems(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memPurchases) List(_ context.Context, shopID uuid.UUID, f repository.PurchaseListFilter) ([]model.PurchaseHeader, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.PurchaseHeader
	for _, p := range r.purchases {
		if p.ShopID != shopID {
			continue
		}
		if (f.From != nil && p.PurchaseDate.Before(*f.From)) || (f.To != nil && p.PurchaseDate.After(*f.To)) {
			continue
		}
		out = append(out, *r.withItems(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return page(out, f.Page, f.Limit), int64(len(out)), nil
}

// ── test doubles for side effects ────────────────────────────────────────────

type fakeQueue struct {
	mu   sync.Mutex
	jobs [][]uuid.UUID
	err  error
}

func (q *fakeQueue) EnqueueReconcile(_ context.Context, _ uuid.UUID, itemIDs []uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, itemIDs)
	return q.err
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held[key] {
		return nil, infra.ErrKeyLocked
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

// ── environment ──────────────────────────────────────────────────────────────

type testEnv struct {
	store     *memStore
	queue     *fakeQueue
	locker    *fakeLocker
	catalog   CatalogService
	movements MovementService
	sales     SaleService
	purchases PurchaseService
	reconcile ReconcileService
}

func newTestEnv() *testEnv {
	st := newMemStore()
	q := &fakeQueue{}
	l := newFakeLocker()
	items, ledger := memItems{st}, memLedger{st}
	return &testEnv{
		store:     st,
		queue:     q,
		locker:    l,
		catalog:   NewCatalogService(st, items, ledger, memHistory{st}),
		movements: NewMovementService(st, items, ledger, q),
		sales:     NewSaleService(st, memSales{st}, items, ledger, l, q),
		purchases: NewPurchaseService(st, memPurchases{st}, items, ledger, l, q),
		reconcile: NewReconcileService(items, ledger),
	}
}
