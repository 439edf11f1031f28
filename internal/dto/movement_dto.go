package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MovementRequest applies one stock change to one item.
// For kind in/out Quantity is a positive magnitude; for adjustment it is a
// signed, non-zero delta.
type MovementRequest struct {
	Kind     string  `json:"kind"     validate:"required,oneof=in out adjustment"`
	Quantity int     `json:"quantity" validate:"required,min=-2147483647,max=2147483647"`
	Reason   *string `json:"reason"   validate:"omitempty,max=255"`
}

type MovementFilter struct {
	Kind  string `form:"kind"  validate:"omitempty,oneof=in out adjustment"`
	Page  int    `form:"page,default=1"    validate:"min=1"`
	Limit int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LedgerEntryResponse struct {
	ID             string  `json:"id"`
	ItemID         string  `json:"item_id"`
	Kind           string  `json:"kind"`
	SignedQuantity int     `json:"signed_quantity"`
	StockBefore    int     `json:"stock_before"`
	StockAfter     int     `json:"stock_after"`
	Reason         string  `json:"reason"`
	ReferenceID    *string `json:"reference_id"`
	CreatedAt      string  `json:"created_at"`
}

type MovementResponse struct {
	Item        ItemResponse        `json:"item"`
	LedgerEntry LedgerEntryResponse `json:"ledger_entry"`
}

type LedgerListResponse struct {
	Data  []LedgerEntryResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
