package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one stockable product owned by a shop.
// CurrentStock is authoritative and only changes through the stock engines;
// metadata updates never write it. Active=false archives the item while
// keeping its ledger and sale/purchase history.
type Item struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShopID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Name              string    `gorm:"not null"`
	Description       *string
	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CurrentStock      int             `gorm:"not null"`
	LowStockThreshold int             `gorm:"not null"`
	Active            bool            `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Item) TableName() string { return "items" }

// IsLowStock reports whether the item sits at or below its alert threshold.
func (i *Item) IsLowStock() bool { return i.CurrentStock <= i.LowStockThreshold }
