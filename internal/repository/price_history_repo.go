package repository

import (
	"context"

	"tookio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PriceHistoryRepository interface {
	CreateTx(tx *gorm.DB, h *model.ItemPriceHistory) error
	ListByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]model.ItemPriceHistory, int64, error)
}

type priceHistoryRepo struct{ db *gorm.DB }

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepo{db: db}
}

func (r *priceHistoryRepo) CreateTx(tx *gorm.DB, h *model.ItemPriceHistory) error {
	return tx.Create(h).Error
}

// ListByItem returns price changes newest-first.
func (r *priceHistoryRepo) ListByItem(ctx context.Context, itemID uuid.UUID, page, limit int) ([]model.ItemPriceHistory, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.ItemPriceHistory{}).
		Where("item_id = ?", itemID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(page, limit, 50, 200)
	var rows []model.ItemPriceHistory
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
