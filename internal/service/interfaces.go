// Package service defines the interfaces between the engine and its
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/lastorders/closeout/internal/aggregate"
	"github.com/lastorders/closeout/internal/model"
)

// Storage defines the contract for the persistence layer. Everything is
// keyed by shift date and writes are upserts: re-ingesting or re-reconciling
// a shift replaces what was there, it never duplicates.
type Storage interface {
	// Shift data (aggregate plus canonical line items).
	SaveShiftData(ctx context.Context, data *aggregate.ShiftData) error
	GetShiftData(ctx context.Context, shiftDate time.Time) (*aggregate.ShiftData, error)
	ListShiftDates(ctx context.Context) ([]time.Time, error)

	// Staff forms.
	SaveStaffForm(ctx context.Context, form *model.StaffShiftForm) error
	GetStaffForm(ctx context.Context, shiftDate time.Time) (*model.StaffShiftForm, error)

	// Variance reports.
	SaveReport(ctx context.Context, report *model.ShiftVarianceReport) error
	GetReport(ctx context.Context, shiftDate time.Time) (*model.ShiftVarianceReport, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// ReportExporter pushes a finished report to an external destination.
type ReportExporter interface {
	Export(ctx context.Context, report *model.ShiftVarianceReport) error
}
