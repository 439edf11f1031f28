package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"tookio/internal/dto"
	"tookio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchaseLine(id uuid.UUID, qty int, cost string) dto.PurchaseLineRequest {
	return dto.PurchaseLineRequest{ItemID: id.String(), Quantity: qty, UnitCost: decimal.RequireFromString(cost)}
}

func TestRecordPurchase_IncrementsStock(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 10)

	resp, err := env.purchases.RecordPurchase(context.Background(), shop, dto.RecordPurchaseRequest{
		Lines:    []dto.PurchaseLineRequest{purchaseLine(a.ID, 4, "3")},
		Supplier: strPtr(" Acme Wholesale "),
	})
	require.NoError(t, err)

	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(12)))
	require.NotNil(t, resp.Supplier)
	assert.Equal(t, "Acme Wholesale", *resp.Supplier)
	assert.Equal(t, 14, env.store.stockOf(a.ID))

	entries := env.store.entriesFor(a.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, model.KindIn, entries[1].Kind)
	assert.Equal(t, 4, entries[1].SignedQuantity)
	assert.Equal(t, "Purchase #"+resp.ID, entries[1].Reason)
}

func TestRecordPurchase_Validation(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 1)

	cases := []dto.RecordPurchaseRequest{
		{},
		{Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 0, "1")}},
		{Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 1, "-0.01")}},
		{Lines: []dto.PurchaseLineRequest{{ItemID: "x", Quantity: 1}}},
	}
	for _, req := range cases {
		_, err := env.purchases.RecordPurchase(context.Background(), shop, req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
}

func TestRecordPurchase_ArchivedAndUnknownItems(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 1)
	require.NoError(t, env.catalog.ArchiveItem(context.Background(), shop, a.ID))

	_, err := env.purchases.RecordPurchase(context.Background(), shop, dto.RecordPurchaseRequest{
		Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 1, "1")},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.purchases.RecordPurchase(context.Background(), shop, dto.RecordPurchaseRequest{
		Lines: []dto.PurchaseLineRequest{purchaseLine(uuid.New(), 1, "1")},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, env.store.stockOf(a.ID))
}

func TestRecordPurchase_Idempotent(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 0)
	req := dto.RecordPurchaseRequest{
		Lines:          []dto.PurchaseLineRequest{purchaseLine(a.ID, 6, "1.5")},
		IdempotencyKey: "invoice-881",
	}

	first, err := env.purchases.RecordPurchase(context.Background(), shop, req)
	require.NoError(t, err)
	second, err := env.purchases.RecordPurchase(context.Background(), shop, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6, env.store.stockOf(a.ID))

	got, err := env.purchases.GetPurchase(context.Background(), shop, uuid.MustParse(first.ID))
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1)

	_, err = env.purchases.GetPurchase(context.Background(), uuid.New(), uuid.MustParse(first.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := env.purchases.ListPurchases(context.Background(), shop, dto.PurchaseFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

func TestGetAndListPurchases(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 0)
	ctx := context.Background()

	mar := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	apr := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	var ids []string
	for _, d := range []time.Time{mar, apr} {
		d := d
		resp, err := env.purchases.RecordPurchase(ctx, shop, dto.RecordPurchaseRequest{
			Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 2, "1.50")}, PurchaseDate: &d,
		})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	got, err := env.purchases.GetPurchase(ctx, shop, uuid.MustParse(ids[0]))
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "A", got.Lines[0].ItemName)

	_, err = env.purchases.GetPurchase(ctx, uuid.New(), uuid.MustParse(ids[0]))
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := env.purchases.ListPurchases(ctx, shop, dto.PurchaseFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)
	assert.Equal(t, ids[1], all.Data[0].ID, "newest first")

	aprOnly, err := env.purchases.ListPurchases(ctx, shop, dto.PurchaseFilter{From: "2026-04-01", To: "2026-04-30"})
	require.NoError(t, err)
	require.Len(t, aprOnly.Data, 1)
	assert.Equal(t, ids[1], aprOnly.Data[0].ID)
}

func TestRecordPurchase_CostPrecisionAndRange(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 1)

	cases := []dto.RecordPurchaseRequest{
		{Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 1, "1.001")}},
		{Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 1, "10000000000")}},
		{Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, math.MaxInt32+1, "1")}},
	}
	for _, req := range cases {
		_, err := env.purchases.RecordPurchase(context.Background(), shop, req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
	assert.Equal(t, 1, env.store.stockOf(a.ID))
	assert.Equal(t, 0, env.store.purchaseCount())
}

func TestRecordPurchase_StockCeilingRollsBack(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 3)
	full := env.store.seedItem(shop, "Full", math.MaxInt32-5)

	_, err := env.purchases.RecordPurchase(context.Background(), shop, dto.RecordPurchaseRequest{
		Lines: []dto.PurchaseLineRequest{purchaseLine(a.ID, 2, "1"), purchaseLine(full.ID, 10, "1")},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 3, env.store.stockOf(a.ID))
	assert.Equal(t, math.MaxInt32-5, env.store.stockOf(full.ID))
	assert.Len(t, env.store.entriesFor(a.ID), 1)
	assert.Equal(t, 0, env.store.purchaseCount())
}

func TestRecordPurchase_KeyLookupFailureWritesNothing(t *testing.T) {
	env := newTestEnv()
	shop := uuid.New()
	a := env.store.seedItem(shop, "A", 1)
	env.store.failLookup = errors.New("i/o timeout")

	_, err := env.purchases.RecordPurchase(context.Background(), shop, dto.RecordPurchaseRequest{
		Lines:          []dto.PurchaseLineRequest{purchaseLine(a.ID, 4, "2")},
		IdempotencyKey: "inv-2026-11",
	})
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 1, env.store.stockOf(a.ID))
	assert.Equal(t, 0, env.store.purchaseCount())
}
