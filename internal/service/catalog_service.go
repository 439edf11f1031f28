package service

import (
	"context"
	"strings"
	"time"

	"tookio/internal/dto"
	"tookio/internal/model"
	"tookio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const defaultLowStockThreshold = 5

type CatalogService interface {
	CreateItem(ctx context.Context, shopID uuid.UUID, req dto.CreateItemRequest) (*dto.ItemResponse, error)
	GetItem(ctx context.Context, shopID, itemID uuid.UUID) (*dto.ItemResponse, error)
	ListItems(ctx context.Context, shopID uuid.UUID, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	UpdateMetadata(ctx context.Context, shopID, itemID uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error)
	ArchiveItem(ctx context.Context, shopID, itemID uuid.UUID) error
	ReactivateItem(ctx context.Context, shopID, itemID uuid.UUID) error
	LowStock(ctx context.Context, shopID uuid.UUID) ([]dto.LowStockAlert, error)
	PriceHistory(ctx context.Context, shopID, itemID uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error)
}

type catalogService struct {
	tx      repository.Transactor
	items   repository.ItemRepository
	history repository.PriceHistoryRepository
	stock   *stockApplier
}

func NewCatalogService(
	tx repository.Transactor,
	items repository.ItemRepository,
	ledger repository.LedgerRepository,
	history repository.PriceHistoryRepository,
) CatalogService {
	return &catalogService{
		tx:      tx,
		items:   items,
		history: history,
		stock:   newStockApplier(items, ledger),
	}
}

// CreateItem inserts the item at zero stock and, when an initial stock is
// given, books it through the ledger in the same transaction.
func (s *catalogService) CreateItem(ctx context.Context, shopID uuid.UUID, req dto.CreateItemRequest) (resp *dto.ItemResponse, err error) {
	ctx, span := startSpan(ctx, "CatalogService.CreateItem", attribute.String("shop.id", shopID.String()))
	defer func() { endSpan(span, err) }()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if err := checkMoney("unit_price", req.UnitPrice); err != nil {
		return nil, err
	}
	if err := checkMoney("cost_price", req.CostPrice); err != nil {
		return nil, err
	}
	if req.InitialStock < 0 || req.InitialStock > maxQuantity {
		return nil, invalid("initial_stock", "must be between 0 and 2147483647")
	}
	threshold := defaultLowStockThreshold
	if req.LowStockThreshold != nil {
		if err := checkThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
		threshold = *req.LowStockThreshold
	}

	now := time.Now().UTC()
	item := &model.Item{
		ID:                uuid.New(),
		ShopID:            shopID,
		Name:              name,
		Description:       req.Description,
		UnitPrice:         req.UnitPrice,
		CostPrice:         req.CostPrice,
		LowStockThreshold: threshold,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.items.CreateTx(tx, item); err != nil {
			return err
		}
		if req.InitialStock > 0 {
			if _, err := s.stock.applyTx(tx, item, model.KindIn, req.InitialStock, "Initial stock", nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify("create item", err)
	}

	log.Info().Str("shop_id", shopID.String()).Str("item_id", item.ID.String()).
		Int("initial_stock", item.CurrentStock).Msg("item created")
	r := itemToResponse(item)
	return &r, nil
}

func (s *catalogService) GetItem(ctx context.Context, shopID, itemID uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.items.FindByID(ctx, shopID, itemID)
	if err != nil {
		return nil, lookupErr("get item", "item", itemID, err)
	}
	r := itemToResponse(item)
	return &r, nil
}

func (s *catalogService) ListItems(ctx context.Context, shopID uuid.UUID, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	items, total, err := s.items.List(ctx, shopID, repository.ItemListFilter{
		Name:   filter.Name,
		Active: filter.Active,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, classify("list items", err)
	}
	data := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		data = append(data, itemToResponse(&items[i]))
	}
	return &dto.ItemListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateMetadata changes descriptive fields and prices. current_stock is not
// part of the write set. A price change appends an ItemPriceHistory row.
func (s *catalogService) UpdateMetadata(ctx context.Context, shopID, itemID uuid.UUID, req dto.UpdateItemRequest) (resp *dto.ItemResponse, err error) {
	ctx, span := startSpan(ctx, "CatalogService.UpdateMetadata",
		attribute.String("shop.id", shopID.String()),
		attribute.String("item.id", itemID.String()),
	)
	defer func() { endSpan(span, err) }()

	var name *string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, invalid("name", "must not be empty")
		}
		name = &trimmed
	}
	if req.UnitPrice != nil {
		if err := checkMoney("unit_price", *req.UnitPrice); err != nil {
			return nil, err
		}
	}
	if req.CostPrice != nil {
		if err := checkMoney("cost_price", *req.CostPrice); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := checkThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}

	var updated *model.Item
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		// history before-values come from the locked row
		item, err := s.items.FindForUpdateTx(tx, shopID, itemID)
		if err != nil {
			return err
		}
		before := *item

		if name != nil {
			item.Name = *name
		}
		if req.Description != nil {
			item.Description = req.Description
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		if req.CostPrice != nil {
			item.CostPrice = *req.CostPrice
		}
		if req.LowStockThreshold != nil {
			item.LowStockThreshold = *req.LowStockThreshold
		}

		if err := s.items.UpdateMetadataTx(tx, item); err != nil {
			return err
		}
		if !before.UnitPrice.Equal(item.UnitPrice) || !before.CostPrice.Equal(item.CostPrice) {
			if err := s.history.CreateTx(tx, &model.ItemPriceHistory{
				ID:              uuid.New(),
				ItemID:          item.ID,
				UnitPriceBefore: before.UnitPrice,
				UnitPriceAfter:  item.UnitPrice,
				CostPriceBefore: before.CostPrice,
				CostPriceAfter:  item.CostPrice,
				CreatedAt:       time.Now().UTC(),
			}); err != nil {
				return err
			}
		}
		// re-read so the response carries the committed stock
		fresh, err := s.items.FindByIDTx(tx, item.ID)
		if err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, lookupErr("update item", "item", itemID, err)
	}

	r := itemToResponse(updated)
	return &r, nil
}

func (s *catalogService) ArchiveItem(ctx context.Context, shopID, itemID uuid.UUID) error {
	return s.setActive(ctx, shopID, itemID, false)
}

func (s *catalogService) ReactivateItem(ctx context.Context, shopID, itemID uuid.UUID) error {
	return s.setActive(ctx, shopID, itemID, true)
}

func (s *catalogService) setActive(ctx context.Context, shopID, itemID uuid.UUID, active bool) error {
	item, err := s.items.FindByID(ctx, shopID, itemID)
	if err != nil {
		return lookupErr("set item active", "item", itemID, err)
	}
	if item.Active == active {
		return nil
	}
	if err := s.items.SetActive(ctx, itemID, active); err != nil {
		return classify("set item active", err)
	}
	log.Info().Str("item_id", itemID.String()).Bool("active", active).Msg("item status changed")
	return nil
}

func (s *catalogService) LowStock(ctx context.Context, shopID uuid.UUID) ([]dto.LowStockAlert, error) {
	items, err := s.items.ListLowStock(ctx, shopID)
	if err != nil {
		return nil, classify("low stock", err)
	}
	alerts := make([]dto.LowStockAlert, 0, len(items))
	for _, it := range items {
		alerts = append(alerts, dto.LowStockAlert{
			ItemID:            it.ID.String(),
			Name:              it.Name,
			CurrentStock:      it.CurrentStock,
			LowStockThreshold: it.LowStockThreshold,
		})
	}
	return alerts, nil
}

func (s *catalogService) PriceHistory(ctx context.Context, shopID, itemID uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error) {
	if _, err := s.items.FindByID(ctx, shopID, itemID); err != nil {
		return nil, lookupErr("price history", "item", itemID, err)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.history.ListByItem(ctx, itemID, page, limit)
	if err != nil {
		return nil, classify("price history", err)
	}
	data := make([]dto.PriceHistoryResponse, 0, len(rows))
	for i := range rows {
		data = append(data, priceHistoryToResponse(&rows[i]))
	}
	return &dto.PriceHistoryListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// requireActive rejects archived items for any stock-changing operation.
func checkThreshold(n int) error {
	if n < 0 || n > maxQuantity {
		return invalid("low_stock_threshold", "must be between 0 and 2147483647")
	}
	return nil
}

func requireActive(item *model.Item) error {
	if !item.Active {
		return invalid("item_id", "item "+item.Name+" is archived")
	}
	return nil
}
