package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemPriceHistory records every price change of an item.
// Rows are append-only.
type ItemPriceHistory struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitPriceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitPriceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPriceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPriceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt       time.Time
}

func (ItemPriceHistory) TableName() string { return "item_price_history" }
