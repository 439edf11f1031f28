package repository

import (
	"context"

	"tookio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerFilter defines filters for listing ledger entries.
type LedgerFilter struct {
	ItemID uuid.UUID
	Kind   string
	Page   int
	Limit  int
}

// LedgerRepository exposes the append-only stock ledger.
// There is no update or delete method on purpose.
type LedgerRepository interface {
	CreateTx(tx *gorm.DB, e *model.StockLedgerEntry) error
	List(ctx context.Context, filter LedgerFilter) ([]model.StockLedgerEntry, int64, error)
	// SumByItems returns SUM(signed_quantity) per item. Items without entries are absent.
	SumByItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) CreateTx(tx *gorm.DB, e *model.StockLedgerEntry) error {
	return tx.Create(e).Error
}

func (r *ledgerRepo) List(ctx context.Context, filter LedgerFilter) ([]model.StockLedgerEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockLedgerEntry{}).Where("item_id = ?", filter.ItemID)
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 100, 500)
	var entries []model.StockLedgerEntry
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

type ledgerSum struct {
	ItemID uuid.UUID
	Total  int
}

func (r *ledgerRepo) SumByItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	var rows []ledgerSum
	err := r.db.WithContext(ctx).Model(&model.StockLedgerEntry{}).
		Select("item_id, COALESCE(SUM(signed_quantity), 0) AS total").
		Where("item_id IN ?", itemIDs).
		Group("item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ItemID] = row.Total
	}
	return out, nil
}
