package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/domain/bulk"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Importer runs one import batch
type Importer interface {
	Import(ctx context.Context, req importapp.ImportRequest) (*csvimport.BatchResult, error)
}

// ErrNoImporter is returned for a job whose entity has no importer
var ErrNoImporter = errors.New("no importer registered for entity type")

// ImportExecutor feeds inbox files to the importer for their entity type.
// The file is removed once the import returns, whatever the outcome.
type ImportExecutor struct {
	importers map[bulk.ImportEntityType]Importer
	actor     string
	logger    *zap.Logger
}

// NewImportExecutor creates an executor recording actor as the importer of every batch
func NewImportExecutor(actor string, logger *zap.Logger) *ImportExecutor {
	return &ImportExecutor{
		importers: make(map[bulk.ImportEntityType]Importer),
		actor:     actor,
		logger:    logger,
	}
}

// Register sets the importer for an entity type
func (e *ImportExecutor) Register(entity bulk.ImportEntityType, importer Importer) *ImportExecutor {
	e.importers[entity] = importer
	return e
}

// Execute imports the job's file
func (e *ImportExecutor) Execute(ctx context.Context, job *Job) error {
	importer, ok := e.importers[job.Entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoImporter, job.Entity)
	}

	return csvimport.ConsumeFile(job.Path, func(f *os.File, info fs.FileInfo) error {
		result, err := importer.Import(ctx, importapp.ImportRequest{
			FileName:   info.Name(),
			Size:       info.Size(),
			Source:     bulk.ImportSourceInbox,
			ImportedBy: e.actor,
			Content:    f,
		})
		if err != nil {
			return err
		}
		e.logger.Info("Inbox file imported",
			zap.String("file", info.Name()),
			zap.String("import_id", result.ImportID.String()),
			zap.Int("processed", result.ProcessedRows),
			zap.Int("skipped", result.SkippedRows),
			zap.Int("errors", result.ErrorRows),
		)
		return nil
	})
}

var _ JobExecutor = (*ImportExecutor)(nil)
