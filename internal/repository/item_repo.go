package repository

import (
	"context"

	"tookio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemListFilter narrows ListItems. Active is "true" (default), "false" or "all".
type ItemListFilter struct {
	Name   string
	Active string
	Page   int
	Limit  int
}

// ItemRepository is the data access contract for the catalog.
// current_stock is only ever written by ApplyStockDeltaTx and by the
// initial insert in CreateTx.
type ItemRepository interface {
	CreateTx(tx *gorm.DB, item *model.Item) error
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*model.Item, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error)
	// FindForUpdateTx reads the item under a row lock held until tx ends.
	FindForUpdateTx(tx *gorm.DB, shopID, id uuid.UUID) (*model.Item, error)
	FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]model.Item, error)
	List(ctx context.Context, shopID uuid.UUID, filter ItemListFilter) ([]model.Item, int64, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]model.Item, error)
	ListLowStock(ctx context.Context, shopID uuid.UUID) ([]model.Item, error)
	UpdateMetadataTx(tx *gorm.DB, item *model.Item) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ApplyStockDeltaTx adds delta to current_stock in a single conditional
	// statement and returns the new value. ErrStockGuard when no row matched,
	// i.e. the result would leave [0, MaxInt32].
	ApplyStockDeltaTx(tx *gorm.DB, id uuid.UUID, delta int) (int, error)
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) CreateTx(tx *gorm.DB, item *model.Item) error {
	return tx.Create(item).Error
}

func (r *itemRepo) FindByID(ctx context.Context, shopID, id uuid.UUID) (*model.Item, error) {
	var it model.Item
	err := r.db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, shopID).First(&it).Error
	return &it, err
}

func (r *itemRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var it model.Item
	err := tx.Where("id = ?", id).First(&it).Error
	return &it, err
}

func (r *itemRepo) FindForUpdateTx(tx *gorm.DB, shopID, id uuid.UUID) (*model.Item, error) {
	var it model.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND shop_id = ?", id, shopID).First(&it).Error
	return &it, err
}

func (r *itemRepo) FindByIDs(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("shop_id = ? AND id IN ?", shopID, ids).Find(&items).Error
	return items, err
}

func (r *itemRepo) List(ctx context.Context, shopID uuid.UUID, filter ItemListFilter) ([]model.Item, int64, error) {
	var items []model.Item
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Item{}).Where("shop_id = ?", shopID)
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
	default:
		q = q.Where("active = true")
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 50, 200)
	err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *itemRepo) ListByShop(ctx context.Context, shopID uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) ListLowStock(ctx context.Context, shopID uuid.UUID) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND active = true AND current_stock <= low_stock_threshold", shopID).
		Order("current_stock ASC, name ASC").
		Find(&items).Error
	return items, err
}

// UpdateMetadataTx writes the descriptive columns only.
func (r *itemRepo) UpdateMetadataTx(tx *gorm.DB, item *model.Item) error {
	return tx.Model(&model.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"name":                item.Name,
		"description":         item.Description,
		"unit_price":          item.UnitPrice,
		"cost_price":          item.CostPrice,
		"low_stock_threshold": item.LowStockThreshold,
		"updated_at":          gorm.Expr("NOW()"),
	}).Error
}

func (r *itemRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Update("active", active).Error
}

type stockRow struct {
	CurrentStock int
}

func (r *itemRepo) ApplyStockDeltaTx(tx *gorm.DB, id uuid.UUID, delta int) (int, error) {
	var rows []stockRow
	err := tx.Raw(`UPDATE items
		SET current_stock = current_stock + ?, updated_at = NOW()
		WHERE id = ? AND current_stock::bigint + ? BETWEEN 0 AND 2147483647
		RETURNING current_stock`, delta, id, delta).Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrStockGuard
	}
	return rows[0].CurrentStock, nil
}
