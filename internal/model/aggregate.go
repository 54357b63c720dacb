package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemTotal is the per-item accumulation inside an aggregate.
type ItemTotal struct {
	Name     string
	Quantity decimal.Decimal
	Revenue  decimal.Decimal
}

// PosShiftAggregate is the provider-agnostic summary of one shift's POS
// activity. One instance exists per shift date; recomputing a shift replaces
// the previous aggregate rather than adding to it.
type PosShiftAggregate struct {
	ShiftDate      time.Time
	GrossSales     decimal.Decimal
	NetSales       decimal.Decimal
	Discounts      decimal.Decimal
	ReceiptCount   int
	Payments       map[PaymentBucket]decimal.Decimal
	ItemTotals     map[string]ItemTotal
	ItemOrder      []string // first-seen order, used as the final ranking tie-break
	CategoryTotals map[Category]decimal.Decimal
	TopItems       []ItemTotal
}

// NewPosShiftAggregate returns an empty aggregate for the given shift date
// with all maps initialized.
func NewPosShiftAggregate(shiftDate time.Time) *PosShiftAggregate {
	return &PosShiftAggregate{
		ShiftDate:      shiftDate,
		GrossSales:     decimal.Zero,
		NetSales:       decimal.Zero,
		Discounts:      decimal.Zero,
		Payments:       make(map[PaymentBucket]decimal.Decimal),
		ItemTotals:     make(map[string]ItemTotal),
		CategoryTotals: make(map[Category]decimal.Decimal),
	}
}

// PaymentTotal returns the accumulated total for a bucket, zero if absent.
func (a *PosShiftAggregate) PaymentTotal(b PaymentBucket) decimal.Decimal {
	if v, ok := a.Payments[b]; ok {
		return v
	}
	return decimal.Zero
}
