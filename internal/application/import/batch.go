package importapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/domain/shared"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportRequest is one export file handed to an import service
type ImportRequest struct {
	FileName   string
	Size       int64
	Source     bulk.ImportSource
	ImportedBy string
	Content    io.Reader
}

// ImportOptions are the knobs shared by both importers
type ImportOptions struct {
	// Actor is recorded on import-driven visibility changes.
	Actor       string
	MaxFileSize int64
	MaxErrors   int
	LockTTL     time.Duration
}

// DefaultImportOptions returns the options used when none are configured
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		Actor:       "ERP Import",
		MaxFileSize: csvimport.DefaultMaxFileSize,
		MaxErrors:   csvimport.DefaultMaxErrors,
		LockTTL:     15 * time.Minute,
	}
}

// ExportArchive keeps a copy of every raw export
type ExportArchive interface {
	Archive(ctx context.Context, entity bulk.ImportEntityType, historyID uuid.UUID, at time.Time, data []byte) (string, error)
}

// BatchMetrics records finished batches
type BatchMetrics interface {
	RecordBatch(ctx context.Context, entity, source, status string, r *csvimport.BatchResult)
}

// processFunc turns the records of one export into a batch result
type processFunc func(ctx context.Context, records [][]string) (*csvimport.BatchResult, error)

// batchRunner owns what every import has in common: the per-kind lock, the
// history record, archiving and size limits.
type batchRunner struct {
	historyRepo bulk.ImportHistoryRepository
	lock        shared.ImportLock
	archive     ExportArchive
	metrics     BatchMetrics
	opts        ImportOptions
	logger      *zap.Logger
	now         func() time.Time
}

// LockName returns the import lock name for an entity type
func LockName(entity bulk.ImportEntityType) string {
	return "import:" + string(entity)
}

func (b *batchRunner) run(ctx context.Context, entity bulk.ImportEntityType, req ImportRequest, process processFunc) (*csvimport.BatchResult, error) {
	if req.Content == nil {
		return nil, shared.NewDomainError("INVALID_FILE", "No file content provided")
	}

	token, err := b.lock.Acquire(ctx, LockName(entity), b.opts.LockTTL)
	if errors.Is(err, shared.ErrLockHeld) {
		return nil, csvimport.ErrImportInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	defer func() {
		if err := b.lock.Release(context.WithoutCancel(ctx), LockName(entity), token); err != nil {
			b.logger.Warn("Failed to release import lock", zap.String("entity", string(entity)), zap.Error(err))
		}
	}()
	// the lock is never renewed, so the run must end before it expires
	ctx, cancel := context.WithTimeout(ctx, b.opts.LockTTL)
	defer cancel()

	start := b.now()
	history, err := bulk.NewImportHistory(entity, req.Source, req.FileName, req.Size, req.ImportedBy, start)
	if err != nil {
		return nil, err
	}
	if err := history.StartProcessing(start); err != nil {
		return nil, err
	}
	if err := b.historyRepo.Save(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to save import history: %w", err)
	}

	log := b.logger.With(
		zap.String("import_id", history.ID.String()),
		zap.String("entity", string(entity)),
		zap.String("source", string(history.Source)),
		zap.String("file", req.FileName),
	)

	data, err := io.ReadAll(io.LimitReader(req.Content, b.opts.MaxFileSize+1))
	if err != nil {
		return nil, b.fail(ctx, log, history, fmt.Errorf("failed to read file: %w", err))
	}
	if int64(len(data)) > b.opts.MaxFileSize {
		return nil, b.fail(ctx, log, history, csvimport.ErrFileTooLarge)
	}
	history.FileSize = int64(len(data))

	if b.archive != nil {
		key, err := b.archive.Archive(ctx, entity, history.ID, start, data)
		if err != nil {
			log.Warn("Failed to archive export", zap.Error(err))
		}
		history.SetArchiveKey(key)
	}

	records, err := csvimport.ReadRecords(bytes.NewReader(data), csvimport.WithMaxSize(b.opts.MaxFileSize))
	if err != nil {
		return nil, b.fail(ctx, log, history, err)
	}

	result, err := process(ctx, records)
	if err != nil {
		return nil, b.fail(ctx, log, history, err)
	}
	result.ImportID = history.ID
	result.Finish(b.now().Sub(start))

	history.ReportDate = result.ReportDate
	if err := history.Complete(countsOf(result), b.now()); err != nil {
		return nil, err
	}
	if err := b.historyRepo.Save(context.WithoutCancel(ctx), history); err != nil {
		log.Error("Failed to save import history", zap.Error(err))
	}
	if b.metrics != nil {
		b.metrics.RecordBatch(ctx, string(entity), string(history.Source), string(history.Status), result)
	}

	log.Info("Import finished",
		zap.String("status", string(history.Status)),
		zap.String("report_date", result.ReportDate),
		zap.Int("total", result.TotalRows),
		zap.Int("created", result.CreatedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("unchanged", result.UnchangedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows),
		zap.Int("hidden", result.HiddenCount),
		zap.Int("restored", result.RestoredCount),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// fail records a batch that produced no result and returns err unchanged
func (b *batchRunner) fail(ctx context.Context, log *zap.Logger, history *bulk.ImportHistory, err error) error {
	if ferr := history.Fail(err.Error(), b.now()); ferr != nil {
		log.Error("Failed to mark import as failed", zap.Error(ferr))
	}
	if serr := b.historyRepo.Save(context.WithoutCancel(ctx), history); serr != nil {
		log.Error("Failed to save import history", zap.Error(serr))
	}
	if b.metrics != nil {
		b.metrics.RecordBatch(ctx, string(history.EntityType), string(history.Source), string(bulk.ImportStatusFailed), nil)
	}
	log.Warn("Import failed", zap.Error(err))
	return err
}

func countsOf(r *csvimport.BatchResult) bulk.ImportCounts {
	details := make([]bulk.ImportErrorDetail, len(r.Errors))
	for i, e := range r.Errors {
		details[i] = bulk.ImportErrorDetail{
			Row:     e.Row,
			Column:  e.Column,
			Code:    e.Code,
			Message: e.Message,
			Value:   e.Value,
		}
	}
	return bulk.ImportCounts{
		TotalRows:     r.TotalRows,
		CreatedRows:   r.CreatedRows,
		UpdatedRows:   r.UpdatedRows,
		UnchangedRows: r.UnchangedRows,
		SkippedRows:   r.SkippedRows,
		ErrorRows:     r.ErrorRows,
		HiddenCount:   r.HiddenCount,
		RestoredCount: r.RestoredCount,
		SkipReasons:   r.SkipReasons,
		ErrorDetails:  details,
	}
}
