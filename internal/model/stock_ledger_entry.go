package model

import (
	"time"

	"github.com/google/uuid"
)

// LedgerKind classifies a stock movement.
type LedgerKind string

const (
	KindIn         LedgerKind = "in"
	KindOut        LedgerKind = "out"
	KindAdjustment LedgerKind = "adjustment"
)

// Valid reports whether k is one of the known kinds.
func (k LedgerKind) Valid() bool {
	switch k {
	case KindIn, KindOut, KindAdjustment:
		return true
	}
	return false
}

// StockLedgerEntry is an immutable record of one stock change.
// SignedQuantity is positive for entries into stock, negative for exits.
// StockAfter always equals StockBefore + SignedQuantity; the sum of every
// SignedQuantity for an item equals the item's CurrentStock.
type StockLedgerEntry struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ItemID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind           LedgerKind `gorm:"type:varchar(20);not null"`
	SignedQuantity int        `gorm:"not null"`
	StockBefore    int        `gorm:"not null"`
	StockAfter     int        `gorm:"not null"`
	Reason         string
	// ReferenceID points at the sale or purchase that produced the entry
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

func (StockLedgerEntry) TableName() string { return "stock_ledger" }
