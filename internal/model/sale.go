package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SaleStatusCompleted = "completed"
	SaleStatusVoided    = "voided"
)

// SaleHeader groups the lines of one sale.
// TotalAmount is the sum of line totals computed from the prices captured at
// sale time; later catalog price changes never touch it.
type SaleHeader struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ShopID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SaleDate       time.Time       `gorm:"not null"`
	Notes          *string
	Status         string  `gorm:"type:varchar(20);not null"`
	IdempotencyKey *string `gorm:"type:varchar(100)"`
	VoidedAt       *time.Time
	VoidReason     *string
	CreatedAt      time.Time

	Lines []SaleLine `gorm:"foreignKey:SaleID"`
}

func (SaleHeader) TableName() string { return "sale_headers" }

// SaleLine is one itemized row of a sale.
type SaleLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Item *Item `gorm:"foreignKey:ItemID"`
}

func (SaleLine) TableName() string { return "sale_lines" }
