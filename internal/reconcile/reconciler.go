// Package reconcile compares POS ground truth against the staff-submitted
// close-out form and assembles the shift variance report.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lastorders/closeout/internal/model"
)

// Tracked sales field names. These double as the report's field labels.
const (
	FieldCash       = "Cash"
	FieldQR         = "QR"
	FieldGrab       = "Grab"
	FieldFoodPanda  = "FoodPanda"
	FieldAroiDee    = "AroiDee"
	FieldCard       = "Card"
	FieldGrandTotal = "GrandTotal"
	FieldDiscounts  = "Discounts"
	FieldStaffForm  = "StaffForm"
)

// channelFields pairs each tracked payment bucket with its report field name,
// in output order.
var channelFields = []struct {
	bucket model.PaymentBucket
	field  string
}{
	{model.PaymentCash, FieldCash},
	{model.PaymentQR, FieldQR},
	{model.PaymentGrab, FieldGrab},
	{model.PaymentFoodPanda, FieldFoodPanda},
	{model.PaymentAroiDee, FieldAroiDee},
	{model.PaymentCard, FieldCard},
}

// Tolerance combines an absolute floor with a relative ceiling. A delta is
// out of tolerance only when it exceeds both: the floor absorbs small-shift
// noise, the relative part absorbs proportional drift on big nights. Either
// alone misbehaves at one extreme.
type Tolerance struct {
	Absolute decimal.Decimal
	Relative decimal.Decimal
}

// Exceeded reports whether delta falls outside tolerance relative to the POS
// value. The boundary itself is in tolerance.
func (t Tolerance) Exceeded(delta, posValue decimal.Decimal) bool {
	limit := t.Absolute
	if rel := t.Relative.Mul(posValue.Abs()); rel.GreaterThan(limit) {
		limit = rel
	}
	return delta.Abs().GreaterThan(limit)
}

// Reconciler checks staff-declared sales figures against POS aggregates.
type Reconciler struct {
	overrides  map[string]Tolerance
	defaultTol Tolerance
}

// NewReconciler creates a reconciler with a default tolerance and optional
// per-field overrides keyed by field name.
func NewReconciler(defaultTol Tolerance, overrides map[string]Tolerance) *Reconciler {
	return &Reconciler{
		defaultTol: defaultTol,
		overrides:  overrides,
	}
}

func (r *Reconciler) tolerance(field string) Tolerance {
	if t, ok := r.overrides[field]; ok {
		return t
	}
	return r.defaultTol
}

// Compare reconciles the staff form against the aggregate. Flags are emitted
// only for fields whose delta (staff minus POS) exceeds tolerance. A missing
// form is not an error: it yields a single info-severity entry so the report
// still shows the shift was never closed out on paper.
func (r *Reconciler) Compare(agg *model.PosShiftAggregate, form *model.StaffShiftForm) ([]model.DiscrepancyFlag, []model.Annotation) {
	if form == nil {
		return []model.DiscrepancyFlag{{
				Field:      FieldStaffForm,
				PosValue:   agg.GrossSales,
				StaffValue: decimal.Zero,
				Delta:      decimal.Zero,
				Severity:   model.SeverityInfo,
			}}, []model.Annotation{{
				Code:     model.CodeMissingForm,
				Severity: model.SeverityInfo,
				Message:  fmt.Sprintf("no staff form submitted for %s", agg.ShiftDate.Format("2006-01-02")),
			}}
	}

	var flags []model.DiscrepancyFlag
	check := func(field string, pos, staff decimal.Decimal) {
		delta := staff.Sub(pos)
		if r.tolerance(field).Exceeded(delta, pos) {
			flags = append(flags, model.DiscrepancyFlag{
				Field:      field,
				PosValue:   pos,
				StaffValue: staff,
				Delta:      delta,
				Severity:   model.SeverityWarn,
			})
		}
	}

	for _, cf := range channelFields {
		check(cf.field, agg.PaymentTotal(cf.bucket), form.ChannelTotal(cf.bucket))
	}
	check(FieldGrandTotal, agg.GrossSales, form.TotalSales)
	// The form has no discounts field; a POS discount total beyond tolerance
	// still deserves a look.
	check(FieldDiscounts, agg.Discounts, decimal.Zero)

	var annotations []model.Annotation
	if form.BankedAmount.Sign() != 0 {
		annotations = append(annotations, model.Annotation{
			Code:     model.CodeBankedAmountPresent,
			Severity: model.SeverityInfo,
			Message: fmt.Sprintf("form declares banked amount %s, excluded from sales reconciliation",
				form.BankedAmount.StringFixed(2)),
		})
	}

	return flags, annotations
}
