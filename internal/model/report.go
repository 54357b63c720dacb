package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscrepancyFlag records one tracked field pair whose staff-declared value
// diverged from the POS value beyond tolerance. Delta is staff minus POS.
type DiscrepancyFlag struct {
	Field      string
	PosValue   decimal.Decimal
	StaffValue decimal.Decimal
	Delta      decimal.Decimal
	Severity   Severity
}

// StockVarianceLine is the expected-vs-actual comparison for one tracked
// ingredient. Variance is actual minus expected.
type StockVarianceLine struct {
	Ingredient string
	Unit       string
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Variance   decimal.Decimal
	Threshold  decimal.Decimal
	Flagged    bool
	OverUsage  bool
}

// ShiftVarianceReport is the engine's sole output contract: one report per
// reconciliation run. A new report for the same shift date supersedes the old
// one; reports are never mutated in place.
type ShiftVarianceReport struct {
	ShiftDate      time.Time
	Sales          []DiscrepancyFlag
	Stock          []StockVarianceLine
	Annotations    []Annotation
	OverallFlagged bool
}
