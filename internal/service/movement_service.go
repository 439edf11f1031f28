package service

import (
	"context"
	"fmt"

	"tookio/internal/dto"
	"tookio/internal/model"
	"tookio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ReconcileQueue schedules an asynchronous ledger check for items just written.
type ReconcileQueue interface {
	EnqueueReconcile(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) error
}

var defaultReasons = map[model.LedgerKind]string{
	model.KindIn:         "Stock received",
	model.KindOut:        "Stock removed",
	model.KindAdjustment: "Stock adjustment",
}

type MovementService interface {
	RecordMovement(ctx context.Context, shopID, itemID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, shopID, itemID uuid.UUID, filter dto.MovementFilter) (*dto.LedgerListResponse, error)
}

type movementService struct {
	tx     repository.Transactor
	items  repository.ItemRepository
	ledger repository.LedgerRepository
	stock  *stockApplier
	queue  ReconcileQueue
}

func NewMovementService(
	tx repository.Transactor,
	items repository.ItemRepository,
	ledger repository.LedgerRepository,
	queue ReconcileQueue,
) MovementService {
	return &movementService{
		tx:     tx,
		items:  items,
		ledger: ledger,
		stock:  newStockApplier(items, ledger),
		queue:  queue,
	}
}

// signedQuantity turns the request quantity into the ledger delta.
// in/out carry a magnitude, adjustment is taken as given.
func signedQuantity(kind model.LedgerKind, quantity int) (int, error) {
	if quantity == 0 {
		return 0, invalid("quantity", "must not be zero")
	}
	if abs(quantity) > maxQuantity {
		return 0, invalid("quantity", "magnitude must be at most 2147483647")
	}
	switch kind {
	case model.KindIn:
		return abs(quantity), nil
	case model.KindOut:
		return -abs(quantity), nil
	case model.KindAdjustment:
		return quantity, nil
	}
	return 0, invalid("kind", fmt.Sprintf("unknown movement kind %q", kind))
}

func (s *movementService) RecordMovement(ctx context.Context, shopID, itemID uuid.UUID, req dto.MovementRequest) (resp *dto.MovementResponse, err error) {
	ctx, span := startSpan(ctx, "MovementService.RecordMovement",
		attribute.String("shop.id", shopID.String()),
		attribute.String("item.id", itemID.String()),
		attribute.String("movement.kind", req.Kind),
	)
	defer func() { endSpan(span, err) }()

	kind := model.LedgerKind(req.Kind)
	delta, err := signedQuantity(kind, req.Quantity)
	if err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, shopID, itemID)
	if err != nil {
		return nil, lookupErr("record movement", "item", itemID, err)
	}
	if err := requireActive(item); err != nil {
		return nil, err
	}

	// Fast pre-check. The conditional update inside the tx is what holds under
	// concurrency.
	if item.CurrentStock+delta < 0 {
		return nil, &InsufficientStockError{
			ItemID:       item.ID,
			ItemName:     item.Name,
			CurrentStock: item.CurrentStock,
			Requested:    abs(delta),
		}
	}
	if exceedsStockCeiling(item.CurrentStock, delta) {
		return nil, stockCeilingErr(item)
	}

	reason := defaultReasons[kind]
	if req.Reason != nil && *req.Reason != "" {
		reason = *req.Reason
	}

	var entry *model.StockLedgerEntry
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		e, err := s.stock.applyTx(tx, item, kind, delta, reason, nil)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, classify("record movement", err)
	}

	span.SetAttributes(attribute.Int("stock.after", item.CurrentStock))
	log.Info().
		Str("shop_id", shopID.String()).
		Str("item_id", item.ID.String()).
		Str("kind", string(kind)).
		Int("signed_quantity", delta).
		Int("stock_after", item.CurrentStock).
		Msg("stock movement recorded")
	afterCommit(ctx, s.queue, shopID, []*model.Item{item})

	return &dto.MovementResponse{
		Item:        itemToResponse(item),
		LedgerEntry: entryToResponse(entry),
	}, nil
}

func (s *movementService) ListMovements(ctx context.Context, shopID, itemID uuid.UUID, filter dto.MovementFilter) (*dto.LedgerListResponse, error) {
	if _, err := s.items.FindByID(ctx, shopID, itemID); err != nil {
		return nil, lookupErr("list movements", "item", itemID, err)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}
	entries, total, err := s.ledger.List(ctx, repository.LedgerFilter{
		ItemID: itemID,
		Kind:   filter.Kind,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, classify("list movements", err)
	}
	data := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		data = append(data, entryToResponse(&entries[i]))
	}
	return &dto.LedgerListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// afterCommit runs best-effort side effects of a committed stock write.
// Failures are logged and never change the operation's result.
func afterCommit(ctx context.Context, queue ReconcileQueue, shopID uuid.UUID, items []*model.Item) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		if it.IsLowStock() {
			log.Warn().
				Str("item_id", it.ID.String()).
				Str("name", it.Name).
				Int("current_stock", it.CurrentStock).
				Int("threshold", it.LowStockThreshold).
				Msg("item at or below low stock threshold")
		}
	}
	if queue == nil {
		return
	}
	if err := queue.EnqueueReconcile(context.WithoutCancel(ctx), shopID, ids); err != nil {
		log.Warn().Err(err).Str("shop_id", shopID.String()).Msg("reconcile job not enqueued")
	}
}
