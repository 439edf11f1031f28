package service

import (
	"bytes"
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

type SaleService interface {
	RecordSale(ctx context.Context, shopID uuid.UUID, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, shopID, saleID uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, shopID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	VoidSale(ctx context.Context, shopID, saleID uuid.UUID, reason string) (*dto.SaleResponse, error)
}

type saleService struct {
	tx     repository.Transactor
	sales  repository.SaleRepository
	items  repository.ItemRepository
	stock  *stockApplier
	locker KeyLocker
	queue  ReconcileQueue
}

func NewSaleService(
	tx repository.Transactor,
	sales repository.SaleRepository,
	items repository.ItemRepository,
	ledger repository.LedgerRepository,
	locker KeyLocker,
	queue ReconcileQueue,
) SaleService {
	return &saleService{
		tx:     tx,
		sales:  sales,
		items:  items,
		stock:  newStockApplier(items, ledger),
		locker: locker,
		queue:  queue,
	}
}

type saleLineInput struct {
	itemID    uuid.UUID
	quantity  int
	unitPrice decimal.Decimal
}

func parseSaleLines(lines []dto.SaleLineRequest) ([]saleLineInput, error) {
	if len(lines) == 0 {
		return nil, invalid("lines", "at least one line is required")
	}
	out := make([]saleLineInput, 0, len(lines))
	for i, l := range lines {
		id, err := uuid.Parse(l.ItemID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("lines[%d].item_id", i), "must be a valid UUID")
		}
		if err := checkQuantity(fmt.Sprintf("lines[%d].quantity", i), l.Quantity); err != nil {
			return nil, err
		}
		if err := checkMoney(fmt.Sprintf("lines[%d].unit_price", i), l.UnitPrice); err != nil {
			return nil, err
		}
		if err := checkTotal(fmt.Sprintf("lines[%d]", i), l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))); err != nil {
			return nil, err
		}
		out = append(out, saleLineInput{itemID: id, quantity: l.Quantity, unitPrice: l.UnitPrice})
	}
	return out, nil
}

// resolveItems loads every referenced item in the shop's scope. Missing or
// foreign items are NotFound; archived items fail validation.
func resolveItems(ctx context.Context, repo repository.ItemRepository, shopID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*model.Item, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	found, err := repo.FindByIDs(ctx, shopID, unique)
	if err != nil {
		return nil, classify("resolve items", err)
	}
	byID := make(map[uuid.UUID]*model.Item, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for _, id := range unique {
		item, ok := byID[id]
		if !ok {
			return nil, notFound("item", id)
		}
		if err := requireActive(item); err != nil {
			return nil, err
		}
	}
	return byID, nil
}

// byItemID orders stock writes so concurrent multi-line transactions take
// row locks in the same order.
func byItemID(a, b uuid.UUID) bool { return bytes.Compare(a[:], b[:]) < 0 }

// RecordSale validates every line, checks stock per item across all lines,
// then writes header, lines, decrements and ledger entries in one transaction.
func (s *saleService) RecordSale(ctx context.Context, shopID uuid.UUID, req dto.RecordSaleRequest) (resp *dto.SaleResponse, err error) {
	ctx, span := startSpan(ctx, "SaleService.RecordSale",
		attribute.String("shop.id", shopID.String()),
		attribute.Int("sale.lines", len(req.Lines)),
	)
	defer func() { endSpan(span, err) }()

	lines, err := parseSaleLines(req.Lines)
	if err != nil {
		return nil, err
	}
	key, err := normaliseKey(req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	if existing, err := s.findByKey(ctx, shopID, key); err != nil || existing != nil {
		if existing != nil {
			span.SetAttributes(attribute.Bool("idempotent.replay", true))
		}
		return existing, err
	}
	release, err := lockKey(ctx, s.locker, shopID, "sale", key)
	if err != nil {
		return nil, err
	}
	defer release()
	if existing, err := s.findByKey(ctx, shopID, key); err != nil || existing != nil {
		if existing != nil {
			span.SetAttributes(attribute.Bool("idempotent.replay", true))
		}
		return existing, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.itemID)
	}
	items, err := resolveItems(ctx, s.items, shopID, ids)
	if err != nil {
		return nil, err
	}

	// Sufficiency is checked per item over all of its lines, so a sale that
	// lists the same item twice cannot pass on each line separately.
	need := make(map[uuid.UUID]int, len(items))
	for _, l := range lines {
		need[l.itemID] += l.quantity
		if need[l.itemID] > maxQuantity {
			return nil, invalid("lines", fmt.Sprintf("total quantity for item %s must be at most 2147483647", l.itemID))
		}
	}
	for _, l := range lines {
		item := items[l.itemID]
		if item.CurrentStock < need[l.itemID] {
			return nil, &InsufficientStockError{
				ItemID:       item.ID,
				ItemName:     item.Name,
				CurrentStock: item.CurrentStock,
				Requested:    need[l.itemID],
			}
		}
	}

	now := time.Now().UTC()
	saleDate := now
	if req.SaleDate != nil {
		saleDate = req.SaleDate.UTC()
	}

	header := &model.SaleHeader{
		ID:        uuid.New(),
		ShopID:    shopID,
		SaleDate:  saleDate,
		Notes:     req.Notes,
		Status:    model.SaleStatusCompleted,
		CreatedAt: now,
	}
	if key != "" {
		header.IdempotencyKey = &key
	}
	total := decimal.Zero
	for _, l := range lines {
		lineTotal := l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
		total = total.Add(lineTotal)
		header.Lines = append(header.Lines, model.SaleLine{
			ID:        uuid.New(),
			SaleID:    header.ID,
			ItemID:    l.itemID,
			Quantity:  l.quantity,
			UnitPrice: l.unitPrice,
			LineTotal: lineTotal,
		})
	}
	if err := checkTotal("total_amount", total); err != nil {
		return nil, err
	}
	header.TotalAmount = total

	ordered := make([]model.SaleLine, len(header.Lines))
	copy(ordered, header.Lines)
	sort.SliceStable(ordered, func(i, j int) bool { return byItemID(ordered[i].ItemID, ordered[j].ItemID) })

	reason := fmt.Sprintf("Sale #%s", header.ID)
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.sales.CreateTx(tx, header); err != nil {
			return err
		}
		for _, l := range ordered {
			saleID := header.ID
			if _, err := s.stock.applyTx(tx, items[l.ItemID], model.KindOut, -l.Quantity, reason, &saleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race on the unique index: the winner's sale is the answer
			if existing, ferr := s.findByKey(ctx, shopID, key); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, classify("record sale", err)
	}

	log.Info().
		Str("shop_id", shopID.String()).
		Str("sale_id", header.ID.String()).
		Int("lines", len(header.Lines)).
		Str("total", total.StringFixed(2)).
		Msg("sale recorded")

	touched := make([]*model.Item, 0, len(items))
	for i := range header.Lines {
		header.Lines[i].Item = items[header.Lines[i].ItemID]
	}
	for _, it := range items {
		touched = append(touched, it)
	}
	afterCommit(ctx, s.queue, shopID, touched)

	return saleToResponse(header), nil
}

// findByKey returns the sale stored under key, nil when there is none.
func (s *saleService) findByKey(ctx context.Context, shopID uuid.UUID, key string) (*dto.SaleResponse, error) {
	if key == "" {
		return nil, nil
	}
	existing, err := s.sales.FindByIdempotencyKey(ctx, shopID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("idempotency lookup", err)
	}
	return saleToResponse(existing), nil
}

func (s *saleService) GetSale(ctx context.Context, shopID, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, shopID, saleID)
	if err != nil {
		return nil, lookupErr("get sale", "sale", saleID, err)
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, shopID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
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
	sales, total, err := s.sales.List(ctx, shopID, repository.SaleListFilter{
		From:   from,
		To:     to,
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, classify("list sales", err)
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// VoidSale restores the stock of every line with compensating "in" entries
// and marks the sale voided, all in one transaction. The original ledger
// entries stay untouched.
func (s *saleService) VoidSale(ctx context.Context, shopID, saleID uuid.UUID, reason string) (resp *dto.SaleResponse, err error) {
	ctx, span := startSpan(ctx, "SaleService.VoidSale",
		attribute.String("shop.id", shopID.String()),
		attribute.String("sale.id", saleID.String()),
	)
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "must not be empty")
	}

	var touched []*model.Item
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		sale, err := s.sales.FindForUpdateTx(tx, shopID, saleID)
		if err != nil {
			return lookupErr("void sale", "sale", saleID, err)
		}
		if sale.Status == model.SaleStatusVoided {
			return invalid("status", "sale is already voided")
		}

		lines := make([]model.SaleLine, len(sale.Lines))
		copy(lines, sale.Lines)
		sort.SliceStable(lines, func(i, j int) bool { return byItemID(lines[i].ItemID, lines[j].ItemID) })

		entryReason := fmt.Sprintf("Void sale #%s: %s", sale.ID, reason)
		seen := make(map[uuid.UUID]*model.Item)
		for _, l := range lines {
			item, ok := seen[l.ItemID]
			if !ok {
				item, err = s.items.FindByIDTx(tx, l.ItemID)
				if err != nil {
					return err
				}
				seen[l.ItemID] = item
				touched = append(touched, item)
			}
			ref := sale.ID
			if _, err := s.stock.applyTx(tx, item, model.KindIn, l.Quantity, entryReason, &ref); err != nil {
				return err
			}
		}
		return s.sales.MarkVoidedTx(tx, sale.ID, reason, time.Now().UTC())
	})
	if err != nil {
		return nil, classify("void sale", err)
	}

	log.Info().Str("shop_id", shopID.String()).Str("sale_id", saleID.String()).
		Str("reason", reason).Msg("sale voided")
	afterCommit(ctx, s.queue, shopID, touched)

	return s.GetSale(ctx, shopID, saleID)
}
