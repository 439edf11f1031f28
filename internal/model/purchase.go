package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseHeader groups the lines of one stock purchase.
type PurchaseHeader struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ShopID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PurchaseDate   time.Time       `gorm:"not null"`
	Supplier       *string
	Notes          *string
	IdempotencyKey *string `gorm:"type:varchar(100)"`
	CreatedAt      time.Time

	Lines []PurchaseLine `gorm:"foreignKey:PurchaseID"`
}

func (PurchaseHeader) TableName() string { return "purchase_headers" }

// PurchaseLine records quantity received and the unit cost paid.
type PurchaseLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   int             `gorm:"not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Item *Item `gorm:"foreignKey:ItemID"`
}

func (PurchaseLine) TableName() string { return "purchase_lines" }
