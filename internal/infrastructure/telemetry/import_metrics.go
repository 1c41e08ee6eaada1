package telemetry

import (
	"context"

	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Row outcomes as reported on posync_import_rows_total.
const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

// ImportMetrics records the outcome of import batches.
type ImportMetrics struct {
	batches    *Counter
	rows       *Counter
	skips      *Counter
	visibility *Counter
	duration   *Histogram
}

// NewImportMetrics creates the import instruments on the given meter.
func NewImportMetrics(meter metric.Meter) (*ImportMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ImportMetrics{}
	var err error
	if m.batches, err = NewCounter(meter, "posync_import_batches_total", "Import batches by final status", "{batches}"); err != nil {
		return nil, err
	}
	if m.rows, err = NewCounter(meter, "posync_import_rows_total", "Import rows by outcome", "{rows}"); err != nil {
		return nil, err
	}
	if m.skips, err = NewCounter(meter, "posync_import_skipped_rows_total", "Skipped import rows by reason", "{rows}"); err != nil {
		return nil, err
	}
	if m.visibility, err = NewCounter(meter, "posync_purchase_order_visibility_changes_total", "Purchase orders hidden or restored by imports", "{orders}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "posync_import_duration_seconds",
		Description: "Wall time of one import batch",
		Unit:        "s",
		Boundaries:  ImportDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordBatch records a finished batch. A nil result records only the
// batch status, as for a structural failure.
func (m *ImportMetrics) RecordBatch(ctx context.Context, entity, source, status string, r *csvimport.BatchResult) {
	if m == nil {
		return
	}
	base := []attribute.KeyValue{AttrEntity.String(entity), AttrSource.String(source)}
	m.batches.Inc(ctx, append(base, AttrStatus.String(status))...)
	if r == nil {
		return
	}

	for outcome, n := range map[string]int{
		OutcomeCreated:   r.CreatedRows,
		OutcomeUpdated:   r.UpdatedRows,
		OutcomeUnchanged: r.UnchangedRows,
		OutcomeSkipped:   r.SkippedRows,
		OutcomeError:     r.ErrorRows,
	} {
		if n > 0 {
			m.rows.Add(ctx, int64(n), append(base, AttrOutcome.String(outcome))...)
		}
	}
	for reason, n := range r.SkipReasons {
		m.skips.Add(ctx, int64(n), append(base, AttrReason.String(reason))...)
	}
	if r.HiddenCount > 0 {
		m.visibility.Add(ctx, int64(r.HiddenCount), AttrChange.String("hidden"))
	}
	if r.RestoredCount > 0 {
		m.visibility.Add(ctx, int64(r.RestoredCount), AttrChange.String("restored"))
	}
	m.duration.RecordDuration(ctx, r.Duration, base...)
}

// ErrMeterNil is returned by NewImportMetrics without a meter.
var ErrMeterNil = &MetricsError{Op: "NewImportMetrics", Err: "meter cannot be nil"}

// MetricsError is a failure setting up instruments
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
