package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tookio/internal/dto"
	"tookio/internal/model"
	"tookio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type PurchaseService interface {
	RecordPurchase(ctx context.Context, shopID uuid.UUID, req dto.RecordPurchaseRequest) (*dto.PurchaseResponse, error)
	GetPurchase(ctx context.Context, shopID, purchaseID uuid.UUID) (*dto.PurchaseResponse, error)
	ListPurchases(ctx context.Context, shopID uuid.UUID, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error)
}

type purchaseService struct {
	tx        repository.Transactor
	purchases repository.PurchaseRepository
	items     repository.ItemRepository
	stock     *stockApplier
	locker    KeyLocker
	queue     ReconcileQueue
}

func NewPurchaseService(
	tx repository.Transactor,
	purchases repository.PurchaseRepository,
	items repository.ItemRepository,
	ledger repository.LedgerRepository,
	locker KeyLocker,
	queue ReconcileQueue,
) PurchaseService {
	return &purchaseService{
		tx:        tx,
		purchases: purchases,
		items:     items,
		stock:     newStockApplier(items, ledger),
		locker:    locker,
		queue:     queue,
	}
}

// RecordPurchase mirrors RecordSale with increments. Stock can only grow, so
// there is no sufficiency check.
func (s *purchaseService) RecordPurchase(ctx context.Context, shopID uuid.UUID, req dto.RecordPurchaseRequest) (resp *dto.PurchaseResponse, err error) {
	ctx, span := startSpan(ctx, "PurchaseService.RecordPurchase",
		attribute.String("shop.id", shopID.String()),
		attribute.Int("purchase.lines", len(req.Lines)),
	)
	defer func() { endSpan(span, err) }()

	if len(req.Lines) == 0 {
		return nil, invalid("lines", "at least one line is required")
	}
	ids := make([]uuid.UUID, 0, len(req.Lines))
	for i, l := range req.Lines {
		id, err := uuid.Parse(l.ItemID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("lines[%d].item_id", i), "must be a valid UUID")
		}
		if err := checkQuantity(fmt.Sprintf("lines[%d].quantity", i), l.Quantity); err != nil {
			return nil, err
		}
		if err := checkMoney(fmt.Sprintf("lines[%d].unit_cost", i), l.UnitCost); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	key, err := normaliseKey(req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	if existing, err := s.findByKey(ctx, shopID, key); err != nil || existing != nil {
		return existing, err
	}
	release, err := lockKey(ctx, s.locker, shopID, "purchase", key)
	if err != nil {
		return nil, err
	}
	defer release()
	if existing, err := s.findByKey(ctx, shopID, key); err != nil || existing != nil {
		return existing, err
	}

	items, err := resolveItems(ctx, s.items, shopID, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	purchaseDate := now
	if req.PurchaseDate != nil {
		purchaseDate = req.PurchaseDate.UTC()
	}
	var supplier *string
	if req.Supplier != nil {
		if trimmed := strings.TrimSpace(*req.Supplier); trimmed != "" {
			supplier = &trimmed
		}
	}

	header := &model.PurchaseHeader{
		ID:           uuid.New(),
		ShopID:       shopID,
		PurchaseDate: purchaseDate,
		Supplier:     supplier,
		Notes:        req.Notes,
		CreatedAt:    now,
	}
	if key != "" {
		header.IdempotencyKey = &key
	}
	total := decimal.Zero
	for i, l := range req.Lines {
		lineTotal := l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		if err := checkTotal(fmt.Sprintf("lines[%d]", i), lineTotal); err != nil {
			return nil, err
		}
		total = total.Add(lineTotal)
		header.Lines = append(header.Lines, model.PurchaseLine{
			ID:         uuid.New(),
			PurchaseID: header.ID,
			ItemID:     ids[i],
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
			LineTotal:  lineTotal,
		})
	}
	if err := checkTotal("total_amount", total); err != nil {
		return nil, err
	}
	header.TotalAmount = total

	ordered := make([]model.PurchaseLine, len(header.Lines))
	copy(ordered, header.Lines)
	sort.SliceStable(ordered, func(i, j int) bool { return byItemID(ordered[i].ItemID, ordered[j].ItemID) })

	reason := fmt.Sprintf("Purchase #%s", header.ID)
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.purchases.CreateTx(tx, header); err != nil {
			return err
		}
		for _, l := range ordered {
			ref := header.ID
			if _, err := s.stock.applyTx(tx, items[l.ItemID], model.KindIn, l.Quantity, reason, &ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, ferr := s.findByKey(ctx, shopID, key); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, classify("record purchase", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Str("purchase_id", header.ID.String()).
		Int("lines", len(header.Lines)).
		Str("total", total.StringFixed(2)).
		Msg("purchase recorded")

	touched := make([]*model.Item, 0, len(items))
	for i := range header.Lines {
		header.Lines[i].Item = items[header.Lines[i].ItemID]
	}
	for _, it := range items {
		touched = append(touched, it)
	}
	afterCommit(ctx, s.queue, shopID, touched)

	return purchaseToResponse(header), nil
}

func (s *purchaseService) findByKey(ctx context.Context, shopID uuid.UUID, key string) (*dto.PurchaseResponse, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.purchases.FindByIdempotencyKey(ctx, shopID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("idempotency lookup", err)
	}
	return purchaseToResponse(existing), nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, shopID, purchaseID uuid.UUID) (*dto.PurchaseResponse, error) {
	p, err := s.purchases.FindByID(ctx, shopID, purchaseID)
	if err != nil {
		return nil, lookupErr("get purchase", "purchase", purchaseID, err)
	}
	return purchaseToResponse(p), nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, shopID uuid.UUID, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error) {
	from, to, err := parseDateRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	rows, total, err := s.purchases.List(ctx, shopID, repository.PurchaseListFilter{
		From:  from,
		To:    to,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
	if err != nil {
		return nil, classify("list purchases", err)
	}
	data := make([]dto.PurchaseResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *purchaseToResponse(&rows[i]))
	}
	return &dto.PurchaseListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
