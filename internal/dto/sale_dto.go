package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleLineRequest struct {
	ItemID    string          `json:"item_id"    validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1,max=2147483647"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0,max=9999999999.99"`
}

type RecordSaleRequest struct {
	Lines    []SaleLineRequest `json:"lines"     validate:"required,min=1,dive"`
	Notes    *string           `json:"notes"     validate:"omitempty,max=500"`
	SaleDate *time.Time        `json:"sale_date"`
	// IdempotencyKey is taken from the Idempotency-Key header, never the body
	IdempotencyKey string `json:"-"`
}

type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	From   string `form:"from"` // YYYY-MM-DD, inclusive
	To     string `form:"to"`   // YYYY-MM-DD, inclusive
	Status string `form:"status,default=all" validate:"omitempty,oneof=completed voided all"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleLineResponse struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type SaleResponse struct {
	ID          string             `json:"id"`
	ShopID      string             `json:"shop_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	SaleDate    string             `json:"sale_date"`
	Notes       *string            `json:"notes"`
	Status      string             `json:"status"`
	VoidReason  *string            `json:"void_reason,omitempty"`
	Lines       []SaleLineResponse `json:"lines"`
	CreatedAt   string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
