package importapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"go.uber.org/zap"
)

// LineItemImportService attaches accounting line items to existing
// purchase orders
type LineItemImportService struct {
	batchRunner
	orderRepo    purchasing.PurchaseOrderRepository
	lineItemRepo purchasing.LineItemRepository
	layout       csvimport.LineItemLayout
}

// NewLineItemImportService creates a new LineItemImportService
func NewLineItemImportService(
	orderRepo purchasing.PurchaseOrderRepository,
	lineItemRepo purchasing.LineItemRepository,
	historyRepo bulk.ImportHistoryRepository,
	lock shared.ImportLock,
	layout csvimport.LineItemLayout,
	opts ImportOptions,
	logger *zap.Logger,
) *LineItemImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineItemImportService{
		batchRunner: batchRunner{
			historyRepo: historyRepo,
			lock:        lock,
			opts:        opts,
			logger:      logger,
			now:         time.Now,
		},
		orderRepo:    orderRepo,
		lineItemRepo: lineItemRepo,
		layout:       layout,
	}
}

// SetArchive sets where raw exports are archived
func (s *LineItemImportService) SetArchive(archive ExportArchive) {
	s.archive = archive
}

// SetMetrics sets the batch metrics recorder
func (s *LineItemImportService) SetMetrics(metrics BatchMetrics) {
	s.metrics = metrics
}

// Import runs one line item export. Rows are never updated: a row whose
// key already exists is skipped as a duplicate, so replaying a file is safe.
func (s *LineItemImportService) Import(ctx context.Context, req ImportRequest) (*csvimport.BatchResult, error) {
	return s.run(ctx, bulk.ImportEntityLineItems, req, s.process)
}

func (s *LineItemImportService) process(ctx context.Context, records [][]string) (*csvimport.BatchResult, error) {
	extract, err := csvimport.ExtractLineItems(records, s.layout)
	if err != nil {
		return nil, err
	}

	result := csvimport.NewBatchResult(s.opts.MaxErrors)
	result.TotalRows = len(extract.Rows)

	parents := newParentCache(s.orderRepo)
	inFile := make(map[purchasing.LineItemKey]bool)
	now := s.now()

	skip := func(line int, column string, reason csvimport.SkipReason, value, msg string) {
		result.Skip(line, column, reason, value, msg)
		s.logger.Debug("Row skipped", zap.Int("row", line), zap.String("reason", string(reason)), zap.String("value", value))
	}

	for _, row := range extract.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !row.Match.Found {
			skip(row.Line, "po_number", csvimport.SkipNoPOMatch, "", "no candidate column holds a PO number")
			continue
		}
		if !row.HasAccountPrefix(s.layout.AccountPrefix) {
			skip(row.Line, "account", csvimport.SkipAccountMismatch, row.AccountCode,
				fmt.Sprintf("account does not start with %s", s.layout.AccountPrefix))
			continue
		}

		po, err := parents.resolve(ctx, row.Match)
		if err != nil {
			result.Fail(row.Line, err.Error())
			s.logger.Error("Failed to look up purchase order", zap.Int("row", row.Line), zap.Error(err))
			continue
		}
		if po == nil {
			skip(row.Line, "po_number", csvimport.SkipPONotFound, row.Match.Raw, "no purchase order with this number")
			continue
		}

		item, err := purchasing.NewLineItem(po, row.AccountCode, row.Memo, row.Date, row.Quantity, now)
		var tooLong *purchasing.FieldTooLongError
		switch {
		case errors.As(err, &tooLong):
			skip(row.Line, tooLong.Field, csvimport.SkipFieldTooLong, "", err.Error())
			continue
		case err != nil:
			result.Fail(row.Line, err.Error())
			continue
		}
		key := item.Key()
		if inFile[key] {
			skip(row.Line, "memo", csvimport.SkipDuplicate, item.Memo, "line item repeated in this file")
			continue
		}
		inFile[key] = true

		exists, err := s.lineItemRepo.Exists(ctx, key)
		if err != nil {
			result.Fail(row.Line, err.Error())
			s.logger.Error("Failed to check line item", zap.Int("row", row.Line), zap.Error(err))
			continue
		}
		if exists {
			skip(row.Line, "memo", csvimport.SkipDuplicate, item.Memo, "line item already imported")
			continue
		}

		if err := s.lineItemRepo.Create(ctx, item); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				skip(row.Line, "memo", csvimport.SkipDuplicate, item.Memo, "line item already imported")
				continue
			}
			result.Fail(row.Line, err.Error())
			s.logger.Error("Failed to create line item", zap.Int("row", row.Line), zap.Error(err))
			continue
		}
		result.Created()
	}
	return result, nil
}

// parentCache resolves PO numbers once per batch, remembering misses too
type parentCache struct {
	repo  purchasing.PurchaseOrderRepository
	found map[string]*purchasing.PurchaseOrder
}

func newParentCache(repo purchasing.PurchaseOrderRepository) *parentCache {
	return &parentCache{repo: repo, found: make(map[string]*purchasing.PurchaseOrder)}
}

// resolve tries "PO"+digits, then the bare digits. A nil order with a nil
// error means no such purchase order.
func (c *parentCache) resolve(ctx context.Context, match csvimport.POMatch) (*purchasing.PurchaseOrder, error) {
	for _, key := range match.LookupKeys() {
		if po, ok := c.found[key]; ok {
			if po != nil {
				return po, nil
			}
			continue
		}
		po, err := c.repo.FindByPONumber(ctx, key)
		if errors.Is(err, shared.ErrNotFound) {
			c.found[key] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find purchase order %s: %w", key, err)
		}
		c.found[key] = po
		return po, nil
	}
	return nil, nil
}
