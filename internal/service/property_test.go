package service

import (
	"context"
	"errors"
	"testing"

	"tookio/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// Random sequences of movements, sales, purchases and voids must keep every
// counter non-negative and equal to the sum of its ledger entries, with each
// entry's before/after chaining onto the previous one.
func TestProperty_StockNeverNegativeAndLedgerReconstructs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := newTestEnv()
		shop := uuid.New()
		ctx := context.Background()

		n := rapid.IntRange(1, 3).Draw(rt, "items")
		ids := make([]uuid.UUID, n)
		for i := range ids {
			ids[i] = env.store.seedItem(shop, "item", rapid.IntRange(0, 20).Draw(rt, "initial")).ID
		}
		var sales []uuid.UUID

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for s := 0; s < steps; s++ {
			var err error
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				id := rapid.SampledFrom(ids).Draw(rt, "item")
				kind := rapid.SampledFrom([]string{"in", "out", "adjustment"}).Draw(rt, "kind")
				qty := rapid.IntRange(-15, 15).Draw(rt, "qty")
				_, err = env.movements.RecordMovement(ctx, shop, id, dto.MovementRequest{Kind: kind, Quantity: qty})
			case 1:
				lines := rapid.IntRange(1, 3).Draw(rt, "lines")
				req := dto.RecordSaleRequest{}
				for l := 0; l < lines; l++ {
					req.Lines = append(req.Lines, dto.SaleLineRequest{
						ItemID:    rapid.SampledFrom(ids).Draw(rt, "item").String(),
						Quantity:  rapid.IntRange(1, 8).Draw(rt, "qty"),
						UnitPrice: decimal.NewFromInt(1),
					})
				}
				var resp *dto.SaleResponse
				resp, err = env.sales.RecordSale(ctx, shop, req)
				if err == nil {
					sales = append(sales, uuid.MustParse(resp.ID))
				}
			case 2:
				_, err = env.purchases.RecordPurchase(ctx, shop, dto.RecordPurchaseRequest{
					Lines: []dto.PurchaseLineRequest{{
						ItemID:   rapid.SampledFrom(ids).Draw(rt, "item").String(),
						Quantity: rapid.IntRange(1, 10).Draw(rt, "qty"),
						UnitCost: decimal.NewFromInt(1),
					}},
				})
			case 3:
				if len(sales) == 0 {
					continue
				}
				_, err = env.sales.VoidSale(ctx, shop, rapid.SampledFrom(sales).Draw(rt, "sale"), "property")
			}
			if err != nil && !errors.Is(err, ErrInsufficientStock) && !errors.Is(err, ErrValidation) {
				rt.Fatalf("unexpected error: %v", err)
			}

			for _, id := range ids {
				stock := env.store.stockOf(id)
				if stock < 0 {
					rt.Fatalf("stock went negative: %d", stock)
				}
				if sum := env.store.ledgerSum(id); sum != stock {
					rt.Fatalf("ledger sum %d != stock %d", sum, stock)
				}
			}
		}

		for _, id := range ids {
			prev := 0
			for _, e := range env.store.entriesFor(id) {
				if e.StockBefore != prev || e.StockAfter != e.StockBefore+e.SignedQuantity {
					rt.Fatalf("broken ledger chain at entry %s", e.ID)
				}
				prev = e.StockAfter
			}
		}
	})
}
