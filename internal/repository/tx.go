package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrStockGuard is returned by ApplyStockDeltaTx when the conditional update
// matched no row: the item is missing or the delta would take it below zero.
var ErrStockGuard = errors.New("stock guard rejected update")

// Transactor opens database transactions for the services.
// Every *Tx repository method must receive the tx handed to fn.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct{ db *gorm.DB }

func NewTransactor(db *gorm.DB) Transactor { return &gormTransactor{db: db} }

func (t *gormTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// paginate normalises page/limit and returns the row offset.
func paginate(page, limit, defLimit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defLimit
	}
	return page, limit, (page - 1) * limit
}
