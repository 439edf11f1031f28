package service

import (
	"context"

	"tookio/internal/dto"
	"tookio/internal/model"
	"tookio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// ReconcileService verifies that every item's counter equals the sum of its
// ledger entries. It never repairs anything; drift is reported and logged.
type ReconcileService interface {
	ReconcileItems(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) (*dto.ReconcileResponse, error)
	ReconcileShop(ctx context.Context, shopID uuid.UUID) (*dto.ReconcileResponse, error)
}

type reconcileService struct {
	items  repository.ItemRepository
	ledger repository.LedgerRepository
}

func NewReconcileService(items repository.ItemRepository, ledger repository.LedgerRepository) ReconcileService {
	return &reconcileService{items: items, ledger: ledger}
}

func (s *reconcileService) ReconcileItems(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) (resp *dto.ReconcileResponse, err error) {
	ctx, span := startSpan(ctx, "ReconcileService.ReconcileItems",
		attribute.String("shop.id", shopID.String()),
		attribute.Int("items.requested", len(itemIDs)),
	)
	defer func() { endSpan(span, err) }()

	items, err := s.items.FindByIDs(ctx, shopID, itemIDs)
	if err != nil {
		return nil, classify("reconcile items", err)
	}
	return s.compare(ctx, shopID, items)
}

func (s *reconcileService) ReconcileShop(ctx context.Context, shopID uuid.UUID) (resp *dto.ReconcileResponse, err error) {
	ctx, span := startSpan(ctx, "ReconcileService.ReconcileShop", attribute.String("shop.id", shopID.String()))
	defer func() { endSpan(span, err) }()

	items, err := s.items.ListByShop(ctx, shopID)
	if err != nil {
		return nil, classify("reconcile shop", err)
	}
	return s.compare(ctx, shopID, items)
}

func (s *reconcileService) compare(ctx context.Context, shopID uuid.UUID, items []model.Item) (*dto.ReconcileResponse, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	sums, err := s.ledger.SumByItems(ctx, ids)
	if err != nil {
		return nil, classify("ledger sums", err)
	}

	resp := &dto.ReconcileResponse{ItemsChecked: len(items), Consistent: true, Drifts: []dto.StockDrift{}}
	for _, it := range items {
		sum := sums[it.ID]
		if sum == it.CurrentStock {
			continue
		}
		resp.Consistent = false
		resp.Drifts = append(resp.Drifts, dto.StockDrift{
			ItemID:       it.ID.String(),
			Name:         it.Name,
			CurrentStock: it.CurrentStock,
			LedgerSum:    sum,
			Difference:   it.CurrentStock - sum,
		})
		log.Error().
			Str("shop_id", shopID.String()).
			Str("item_id", it.ID.String()).
			Int("current_stock", it.CurrentStock).
			Int("ledger_sum", sum).
			Msg("stock counter drifted from ledger")
	}
	return resp, nil
}
