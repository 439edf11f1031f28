package service

import (
	"time"

	"tookio/internal/dto"
	"tookio/internal/model"
)

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func itemToResponse(i *model.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:                i.ID.String(),
		ShopID:            i.ShopID.String(),
		Name:              i.Name,
		Description:       i.Description,
		UnitPrice:         i.UnitPrice,
		CostPrice:         i.CostPrice,
		CurrentStock:      i.CurrentStock,
		LowStockThreshold: i.LowStockThreshold,
		LowStock:          i.IsLowStock(),
		Active:            i.Active,
		CreatedAt:         formatTime(i.CreatedAt),
		UpdatedAt:         formatTime(i.UpdatedAt),
	}
}

func entryToResponse(e *model.StockLedgerEntry) dto.LedgerEntryResponse {
	var ref *string
	if e.ReferenceID != nil {
		s := e.ReferenceID.String()
		ref = &s
	}
	return dto.LedgerEntryResponse{
		ID:             e.ID.String(),
		ItemID:         e.ItemID.String(),
		Kind:           string(e.Kind),
		SignedQuantity: e.SignedQuantity,
		StockBefore:    e.StockBefore,
		StockAfter:     e.StockAfter,
		Reason:         e.Reason,
		ReferenceID:    ref,
		CreatedAt:      formatTime(e.CreatedAt),
	}
}

func priceHistoryToResponse(h *model.ItemPriceHistory) dto.PriceHistoryResponse {
	return dto.PriceHistoryResponse{
		ID:              h.ID.String(),
		ItemID:          h.ItemID.String(),
		UnitPriceBefore: h.UnitPriceBefore,
		UnitPriceAfter:  h.UnitPriceAfter,
		CostPriceBefore: h.CostPriceBefore,
		CostPriceAfter:  h.CostPriceAfter,
		CreatedAt:       formatTime(h.CreatedAt),
	}
}

func saleToResponse(s *model.SaleHeader) *dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		name := ""
		if l.Item != nil {
			name = l.Item.Name
		}
		lines = append(lines, dto.SaleLineResponse{
			ID:        l.ID.String(),
			ItemID:    l.ItemID.String(),
			ItemName:  name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		})
	}
	return &dto.SaleResponse{
		ID:          s.ID.String(),
		ShopID:      s.ShopID.String(),
		TotalAmount: s.TotalAmount,
		SaleDate:    formatTime(s.SaleDate),
		Notes:       s.Notes,
		Status:      s.Status,
		VoidReason:  s.VoidReason,
		Lines:       lines,
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

func purchaseToResponse(p *model.PurchaseHeader) *dto.PurchaseResponse {
	lines := make([]dto.PurchaseLineResponse, 0, len(p.Lines))
	for _, l := range p.Lines {
		name := ""
		if l.Item != nil {
			name = l.Item.Name
		}
		lines = append(lines, dto.PurchaseLineResponse{
			ID:        l.ID.String(),
			ItemID:    l.ItemID.String(),
			ItemName:  name,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			LineTotal: l.LineTotal,
		})
	}
	return &dto.PurchaseResponse{
		ID:           p.ID.String(),
		ShopID:       p.ShopID.String(),
		TotalAmount:  p.TotalAmount,
		PurchaseDate: formatTime(p.PurchaseDate),
		Supplier:     p.Supplier,
		Notes:        p.Notes,
		Lines:        lines,
		CreatedAt:    formatTime(p.CreatedAt),
	}
}
