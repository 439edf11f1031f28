package service

import (
	"errors"
	"fmt"
	"time"

	"tookio/internal/model"
	"tookio/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// stockApplier is the single write path for stock. Each call performs the
// conditional counter update and appends the ledger entry in the caller's tx,
// so the two can never diverge.
type stockApplier struct {
	items  repository.ItemRepository
	ledger repository.LedgerRepository
	now    func() time.Time
}

func newStockApplier(items repository.ItemRepository, ledger repository.LedgerRepository) *stockApplier {
	return &stockApplier{items: items, ledger: ledger, now: func() time.Time { return time.Now().UTC() }}
}

// applyTx moves item's stock by delta. On a guard rejection the item is
// re-read inside tx so the error reports the stock the database actually holds.
// The guard rejects results below zero and above the INT column maximum.
func (a *stockApplier) applyTx(tx *gorm.DB, item *model.Item, kind model.LedgerKind, delta int, reason string, ref *uuid.UUID) (*model.StockLedgerEntry, error) {
	after, err := a.items.ApplyStockDeltaTx(tx, item.ID, delta)
	if errors.Is(err, repository.ErrStockGuard) {
		if delta > 0 {
			return nil, stockCeilingErr(item)
		}
		current := item.CurrentStock
		if fresh, ferr := a.items.FindByIDTx(tx, item.ID); ferr == nil {
			current = fresh.CurrentStock
		}
		return nil, &InsufficientStockError{
			ItemID:       item.ID,
			ItemName:     item.Name,
			CurrentStock: current,
			Requested:    abs(delta),
		}
	}
	if err != nil {
		return nil, err
	}

	entry := &model.StockLedgerEntry{
		ID:             uuid.New(),
		ItemID:         item.ID,
		Kind:           kind,
		SignedQuantity: delta,
		StockBefore:    after - delta,
		StockAfter:     after,
		Reason:         reason,
		ReferenceID:    ref,
		CreatedAt:      a.now(),
	}
	if err := a.ledger.CreateTx(tx, entry); err != nil {
		return nil, err
	}
	item.CurrentStock = after
	return entry, nil
}

func exceedsStockCeiling(current, delta int) bool {
	return delta > 0 && int64(current)+int64(delta) > maxQuantity
}

func stockCeilingErr(item *model.Item) error {
	return invalid("quantity", fmt.Sprintf("stock of %q would exceed 2147483647", item.Name))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
