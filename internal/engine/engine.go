// Package engine orchestrates one reconciliation run: canonicalize the
// night's POS exports, fold them into a shift aggregate, estimate ingredient
// usage, reconcile against the staff form and assemble the variance report.
// The engine is stateless between calls; runs for different shift dates may
// proceed in parallel with no coordination.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lastorders/closeout/internal/aggregate"
	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/config"
	"github.com/lastorders/closeout/internal/model"
	"github.com/lastorders/closeout/internal/posfile"
	"github.com/lastorders/closeout/internal/reconcile"
	"github.com/lastorders/closeout/internal/service"
	"github.com/lastorders/closeout/internal/shiftclock"
	"github.com/lastorders/closeout/internal/usage"
)

// Engine wires the pipeline components together. Construct with New.
type Engine struct {
	clock      *shiftclock.Clock
	decoder    *posfile.Decoder
	aggregator *aggregate.Aggregator
	estimator  *usage.Estimator
	reconciler *reconcile.Reconciler
	stock      *reconcile.StockCalculator
	store      service.Storage
}

// New builds an engine from validated configuration. store may be nil for
// purely in-memory runs.
func New(cfg *config.Config, store service.Storage) (*Engine, error) {
	clock, err := shiftclock.New(cfg.BusinessDayStartHour, cfg.UTCOffset)
	if err != nil {
		return nil, err
	}

	return &Engine{
		clock:      clock,
		decoder:    posfile.NewDecoder(),
		aggregator: aggregate.NewAggregator(cfg.CategoryRules, cfg.PaymentSynonyms),
		estimator:  usage.NewEstimator(cfg.Recipes, cfg.GramsPerPatty),
		reconciler: reconcile.NewReconciler(cfg.DefaultTolerance, cfg.FieldTolerances),
		stock:      reconcile.NewStockCalculator(cfg.StockThresholds, cfg.OverUseRatio),
		store:      store,
	}, nil
}

// Clock exposes the shift window resolver so callers date incoming records
// with the exact same rule the engine uses. Divergent shift dating is the
// most common cause of false variance flags.
func (e *Engine) Clock() *shiftclock.Clock {
	return e.clock
}

// RunInput is everything one reconciliation run consumes. Form may be nil
// when no staff form was submitted for the date.
type RunInput struct {
	Form      *model.StaffShiftForm
	Files     []model.ExportFile
	ShiftDate time.Time
}

// Run executes the full pipeline in memory and returns the report. Identical
// inputs always produce identical reports.
func (e *Engine) Run(ctx context.Context, in RunInput) (*model.ShiftVarianceReport, error) {
	data, err := e.BuildShiftData(ctx, in.ShiftDate, in.Files)
	if err != nil {
		return nil, err
	}
	return e.reconcileData(data, in.Form), nil
}

// RunAndStore executes the pipeline and persists both the shift data and the
// report. Re-running for the same date overwrites the previous results.
func (e *Engine) RunAndStore(ctx context.Context, in RunInput) (*model.ShiftVarianceReport, error) {
	if e.store == nil {
		return nil, fmt.Errorf("engine has no storage attached")
	}

	data, err := e.BuildShiftData(ctx, in.ShiftDate, in.Files)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveShiftData(ctx, data); err != nil {
		return nil, fmt.Errorf("save shift data: %w", err)
	}

	report := e.reconcileData(data, in.Form)
	if err := e.store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

// ReconcileStored reconciles a previously ingested shift against whatever
// staff form is on file, persisting the fresh report.
func (e *Engine) ReconcileStored(ctx context.Context, shiftDate time.Time) (*model.ShiftVarianceReport, error) {
	if e.store == nil {
		return nil, fmt.Errorf("engine has no storage attached")
	}

	data, err := e.store.GetShiftData(ctx, shiftDate)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s (run ingest first)", common.ErrNoAggregate, shiftDate.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("load shift data: %w", err)
	}

	form, err := e.store.GetStaffForm(ctx, shiftDate)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("load staff form: %w", err)
	}

	report := e.reconcileData(data, form)
	if err := e.store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

// BuildShiftData canonicalizes and aggregates the given export files for one
// shift. Files are processed concurrently; a file that fails to decode is
// logged and surfaced as an annotation rather than failing the night.
func (e *Engine) BuildShiftData(ctx context.Context, shiftDate time.Time, files []model.ExportFile) (*aggregate.ShiftData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stable order keeps first-seen tie-breaks reproducible no matter which
	// goroutine finishes first.
	sorted := make([]model.ExportFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Filename < sorted[j].Filename
	})

	type outcome struct {
		partial     *aggregate.Partial
		annotations []model.Annotation
	}

	outcomes := make([]outcome, len(sorted))
	var wg sync.WaitGroup
	for i, file := range sorted {
		wg.Add(1)
		go func(i int, file model.ExportFile) {
			defer wg.Done()

			res, err := e.decoder.Decode(file)
			if err != nil {
				common.LogWarn("Skipping unreadable export file", common.Fields{
					"file":  file.Filename,
					"error": err,
				})
				outcomes[i] = outcome{annotations: []model.Annotation{{
					Code:     model.CodeParseWarning,
					Severity: model.SeverityWarn,
					Message:  fmt.Sprintf("file skipped: %v", err),
					File:     file.Filename,
				}}}
				return
			}

			rows, windowAnnotations := e.filterToWindow(shiftDate, res.Rows)
			outcomes[i] = outcome{
				partial:     e.aggregator.FoldRows(rows),
				annotations: append(res.Annotations, windowAnnotations...),
			}
		}(i, file)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partials := make([]*aggregate.Partial, 0, len(outcomes))
	var fileAnnotations []model.Annotation
	for _, o := range outcomes {
		if o.partial != nil {
			partials = append(partials, o.partial)
		}
		fileAnnotations = append(fileAnnotations, o.annotations...)
	}

	data := e.aggregator.Merge(shiftDate, partials)
	data.Annotations = append(fileAnnotations, data.Annotations...)

	common.LogInfo("Aggregated shift exports", common.Fields{
		"shift_date": shiftDate.Format("2006-01-02"),
		"files":      len(sorted),
		"items":      len(data.Aggregate.ItemTotals),
		"gross":      data.Aggregate.GrossSales.StringFixed(2),
	})

	return data, nil
}

// rowTimestampLayouts are the local-time formats receipt exports stamp rows
// with, most common first.
var rowTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/06 15:04",
	"1/2/2006 15:04",
	"1/2/06 3:04 PM",
	"1/2/2006 3:04 PM",
}

// filterToWindow drops rows whose timestamp falls outside the shift's window.
// A late export run can include the tail of the previous night or the start
// of the next one; counting those rows would contaminate the aggregate. Rows
// without a parseable timestamp column are kept as-is.
func (e *Engine) filterToWindow(shiftDate time.Time, rows []model.RawPosRow) ([]model.RawPosRow, []model.Annotation) {
	start, end := e.clock.Window(shiftDate)

	kept := rows[:0:0]
	dropped := 0
	droppedFile := ""
	for _, row := range rows {
		ts, ok := rowTimestamp(row, e.clock.Location())
		if ok && (ts.Before(start) || !ts.Before(end)) {
			dropped++
			droppedFile = row.File
			continue
		}
		kept = append(kept, row)
	}

	if dropped == 0 {
		return kept, nil
	}
	return kept, []model.Annotation{{
		Code:     model.CodeOutOfWindow,
		Severity: model.SeverityWarn,
		Message: fmt.Sprintf("%d row(s) timestamped outside the %s shift dropped",
			dropped, shiftDate.Format("2006-01-02")),
		File: droppedFile,
	}}
}

// rowTimestamp parses the row's timestamp column, if it has one.
func rowTimestamp(row model.RawPosRow, loc *time.Location) (time.Time, bool) {
	var raw string
	for _, name := range []string{"date", "datetime", "receipt date", "created at"} {
		if v, ok := row.Fields[name]; ok && v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range rowTimestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// reconcileData runs the comparison half of the pipeline.
func (e *Engine) reconcileData(data *aggregate.ShiftData, form *model.StaffShiftForm) *model.ShiftVarianceReport {
	est, usageAnnotations := e.estimator.Estimate(data.LineItems, data.Modifiers)

	salesFlags, salesAnnotations := e.reconciler.Compare(data.Aggregate, form)
	stockLines := e.stock.Compare(est, form)

	annotations := make([]model.Annotation, 0,
		len(data.Annotations)+len(usageAnnotations)+len(salesAnnotations))
	annotations = append(annotations, data.Annotations...)
	annotations = append(annotations, usageAnnotations...)
	annotations = append(annotations, salesAnnotations...)

	return reconcile.Assemble(data.Aggregate.ShiftDate, salesFlags, stockLines, annotations)
}
