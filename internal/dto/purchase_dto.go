package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PurchaseLineRequest struct {
	ItemID   string          `json:"item_id"   validate:"required,uuid"`
	Quantity int             `json:"quantity"  validate:"required,min=1,max=2147483647"`
	UnitCost decimal.Decimal `json:"unit_cost" validate:"min=0,max=9999999999.99"`
}

type RecordPurchaseRequest struct {
	Lines        []PurchaseLineRequest `json:"lines"         validate:"required,min=1,dive"`
	Supplier     *string               `json:"supplier"      validate:"omitempty,max=120"`
	Notes        *string               `json:"notes"         validate:"omitempty,max=500"`
	PurchaseDate *time.Time            `json:"purchase_date"`
	// IdempotencyKey is taken from the Idempotency-Key header, never the body
	IdempotencyKey string `json:"-"`
}

type PurchaseFilter struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PurchaseLineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type PurchaseResponse struct {
	ID           string                 `json:"id"`
	ShopID       string                 `json:"shop_id"`
	TotalAmount  decimal.Decimal        `json:"total_amount"`
	PurchaseDate string                 `json:"purchase_date"`
	Supplier     *string                `json:"supplier"`
	Notes        *string                `json:"notes"`
	Lines        []PurchaseLineResponse `json:"lines"`
	CreatedAt    string                 `json:"created_at"`
}

type PurchaseListResponse struct {
	Data  []PurchaseResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
