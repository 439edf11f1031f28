package repository

import (
	"context"
	"time"

	"tookio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseListFilter struct {
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

type PurchaseRepository interface {
	CreateTx(tx *gorm.DB, p *model.PurchaseHeader) error
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*model.PurchaseHeader, error)
	FindByIdempotencyKey(ctx context.Context, shopID uuid.UUID, key string) (*model.PurchaseHeader, error)
	List(ctx context.Context, shopID uuid.UUID, filter PurchaseListFilter) ([]model.PurchaseHeader, int64, error)
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) CreateTx(tx *gorm.DB, p *model.PurchaseHeader) error {
	return tx.Create(p).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, shopID, id uuid.UUID) (*model.PurchaseHeader, error) {
	var p model.PurchaseHeader
	err := r.db.WithContext(ctx).Preload("Lines.Item").
		Where("id = ? AND shop_id = ?", id, shopID).First(&p).Error
	return &p, err
}

func (r *purchaseRepo) FindByIdempotencyKey(ctx context.Context, shopID uuid.UUID, key string) (*model.PurchaseHeader, error) {
	var p model.PurchaseHeader
	err := r.db.WithContext(ctx).Preload("Lines.Item").
		Where("shop_id = ? AND idempotency_key = ?", shopID, key).First(&p).Error
	return &p, err
}

func (r *purchaseRepo) List(ctx context.Context, shopID uuid.UUID, filter PurchaseListFilter) ([]model.PurchaseHeader, int64, error) {
	var purchases []model.PurchaseHeader
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PurchaseHeader{}).Where("shop_id = ?", shopID)
	if filter.From != nil {
		q = q.Where("purchase_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("purchase_date <= ?", *filter.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 50, 200)
	err := q.Preload("Lines.Item").
		Order("purchase_date DESC").
		Offset(offset).Limit(limit).
		Find(&purchases).Error
	return purchases, total, err
}
