package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	Name              string          `json:"name"                validate:"required,min=1,max=120"`
	Description       *string         `json:"description"         validate:"omitempty,max=500"`
	UnitPrice         decimal.Decimal `json:"unit_price"          validate:"min=0,max=9999999999.99"`
	CostPrice         decimal.Decimal `json:"cost_price"          validate:"min=0,max=9999999999.99"`
	InitialStock      int             `json:"initial_stock"       validate:"min=0,max=2147483647"`
	LowStockThreshold *int            `json:"low_stock_threshold" validate:"omitempty,min=0,max=2147483647"`
}

// UpdateItemRequest carries metadata only. There is deliberately no stock
// field: stock changes go through movements, sales and purchases.
type UpdateItemRequest struct {
	Name              *string          `json:"name"                validate:"omitempty,min=1,max=120"`
	Description       *string          `json:"description"         validate:"omitempty,max=500"`
	UnitPrice         *decimal.Decimal `json:"unit_price"          validate:"omitempty,min=0,max=9999999999.99"`
	CostPrice         *decimal.Decimal `json:"cost_price"          validate:"omitempty,min=0,max=9999999999.99"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"omitempty,min=0,max=2147483647"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ItemFilter struct {
	Name   string `form:"name"`
	Active string `form:"active"` // "true" (default) | "false" | "all"
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID                string          `json:"id"`
	ShopID            string          `json:"shop_id"`
	Name              string          `json:"name"`
	Description       *string         `json:"description"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	CurrentStock      int             `json:"current_stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	Active            bool            `json:"active"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type ItemListResponse struct {
	Data  []ItemResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type PriceHistoryResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	UnitPriceBefore decimal.Decimal `json:"unit_price_before"`
	UnitPriceAfter  decimal.Decimal `json:"unit_price_after"`
	CostPriceBefore decimal.Decimal `json:"cost_price_before"`
	CostPriceAfter  decimal.Decimal `json:"cost_price_after"`
	CreatedAt       string          `json:"created_at"`
}

type PriceHistoryListResponse struct {
	Data  []PriceHistoryResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
