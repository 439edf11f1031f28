package repository

import (
	"context"
	"time"

	"tookio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleListFilter bounds are inclusive on sale_date. Nil means open.
type SaleListFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
	Page   int
	Limit  int
}

type SaleRepository interface {
	// CreateTx inserts the header and its Lines.
	CreateTx(tx *gorm.DB, s *model.SaleHeader) error
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*model.SaleHeader, error)
	// FindForUpdateTx loads the sale with its lines and locks the header row.
	FindForUpdateTx(tx *gorm.DB, shopID, id uuid.UUID) (*model.SaleHeader, error)
	FindByIdempotencyKey(ctx context.Context, shopID uuid.UUID, key string) (*model.SaleHeader, error)
	List(ctx context.Context, shopID uuid.UUID, filter SaleListFilter) ([]model.SaleHeader, int64, error)
	MarkVoidedTx(tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.SaleHeader) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, shopID, id uuid.UUID) (*model.SaleHeader, error) {
	var s model.SaleHeader
	err := r.db.WithContext(ctx).Preload("Lines.Item").
		Where("id = ? AND shop_id = ?", id, shopID).First(&s).Error
	return &s, err
}

func (r *saleRepo) FindForUpdateTx(tx *gorm.DB, shopID, id uuid.UUID) (*model.SaleHeader, error) {
	var s model.SaleHeader
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND shop_id = ?", id, shopID).First(&s).Error
	if err != nil {
		return &s, err
	}
	err = tx.Where("sale_id = ?", id).Order("item_id ASC").Find(&s.Lines).Error
	return &s, err
}

func (r *saleRepo) FindByIdempotencyKey(ctx context.Context, shopID uuid.UUID, key string) (*model.SaleHeader, error) {
	var s model.SaleHeader
	err := r.db.WithContext(ctx).Preload("Lines.Item").
		Where("shop_id = ? AND idempotency_key = ?", shopID, key).First(&s).Error
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, shopID uuid.UUID, filter SaleListFilter) ([]model.SaleHeader, int64, error) {
	var sales []model.SaleHeader
	var total int64

	q := r.db.WithContext(ctx).Model(&model.SaleHeader{}).Where("shop_id = ?", shopID)
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("sale_date <= ?", *filter.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 50, 200)
	err := q.Preload("Lines.Item").
		Order("sale_date DESC").
		Offset(offset).Limit(limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) MarkVoidedTx(tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	return tx.Model(&model.SaleHeader{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      model.SaleStatusVoided,
		"void_reason": reason,
		"voided_at":   at,
	}).Error
}
