package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastorders/closeout/internal/model"
)

var testShiftDate = time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// defaultTolerance mirrors the shipped defaults: 50 absolute, 1% relative.
func defaultTolerance() Tolerance {
	return Tolerance{Absolute: dec("50"), Relative: dec("0.01")}
}

func aggWith(payments map[model.PaymentBucket]string, gross string) *model.PosShiftAggregate {
	agg := model.NewPosShiftAggregate(testShiftDate)
	for bucket, amount := range payments {
		agg.Payments[bucket] = dec(amount)
	}
	agg.GrossSales = dec(gross)
	agg.NetSales = agg.GrossSales
	return agg
}

func TestToleranceExceeded(t *testing.T) {
	tol := defaultTolerance()

	tests := []struct {
		name  string
		delta string
		pos   string
		want  bool
	}{
		{name: "zero delta", delta: "0", pos: "5000", want: false},
		{name: "within absolute floor", delta: "49", pos: "100", want: false},
		{name: "exactly at absolute floor", delta: "50", pos: "100", want: false},
		{name: "one past absolute floor", delta: "50.01", pos: "100", want: true},
		{name: "relative widens on big nights", delta: "60", pos: "10000", want: false},
		{name: "exactly at relative limit", delta: "100", pos: "10000", want: false},
		{name: "past relative limit", delta: "100.01", pos: "10000", want: true},
		{name: "negative delta uses magnitude", delta: "-60", pos: "10000", want: false},
		{name: "negative pos uses magnitude", delta: "80", pos: "-10000", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tol.Exceeded(dec(tt.delta), dec(tt.pos)))
		})
	}
}

func TestCompareFlagsCashVariance(t *testing.T) {
	r := NewReconciler(defaultTolerance(), nil)

	agg := aggWith(map[model.PaymentBucket]string{model.PaymentCash: "5000"}, "5000")
	form := &model.StaffShiftForm{
		ShiftDate:  testShiftDate,
		CashSales:  dec("5060"),
		TotalSales: dec("5060"),
	}

	flags, annotations := r.Compare(agg, form)
	assert.Empty(t, annotations)

	require.Len(t, flags, 2) // cash and grand total both off by 60
	byField := map[string]model.DiscrepancyFlag{}
	for _, f := range flags {
		byField[f.Field] = f
	}

	cash, ok := byField[FieldCash]
	require.True(t, ok)
	assert.True(t, cash.Delta.Equal(dec("60")), "delta is staff minus pos")
	assert.True(t, cash.PosValue.Equal(dec("5000")))
	assert.True(t, cash.StaffValue.Equal(dec("5060")))
	assert.Equal(t, model.SeverityWarn, cash.Severity)

	_, ok = byField[FieldGrandTotal]
	assert.True(t, ok)
}

func TestCompareWithinToleranceIsQuiet(t *testing.T) {
	r := NewReconciler(defaultTolerance(), nil)

	agg := aggWith(map[model.PaymentBucket]string{
		model.PaymentCash: "5000",
		model.PaymentQR:   "3000",
	}, "8000")
	form := &model.StaffShiftForm{
		ShiftDate:  testShiftDate,
		CashSales:  dec("5040"),
		QRSales:    dec("2990"),
		TotalSales: dec("8030"),
	}

	flags, annotations := r.Compare(agg, form)
	assert.Empty(t, flags)
	assert.Empty(t, annotations)
}

func TestCompareMissingForm(t *testing.T) {
	r := NewReconciler(defaultTolerance(), nil)
	agg := aggWith(nil, "7500")

	flags, annotations := r.Compare(agg, nil)

	require.Len(t, flags, 1)
	assert.Equal(t, FieldStaffForm, flags[0].Field)
	assert.Equal(t, model.SeverityInfo, flags[0].Severity)
	assert.True(t, flags[0].PosValue.Equal(dec("7500")))

	require.Len(t, annotations, 1)
	assert.Equal(t, model.CodeMissingForm, annotations[0].Code)
}

func TestCompareDiscountsAgainstZero(t *testing.T) {
	r := NewReconciler(defaultTolerance(), nil)

	agg := aggWith(nil, "5000")
	agg.Discounts = dec("200")
	form := &model.StaffShiftForm{ShiftDate: testShiftDate, TotalSales: dec("5000")}

	flags, _ := r.Compare(agg, form)

	var found bool
	for _, f := range flags {
		if f.Field == FieldDiscounts {
			found = true
			assert.True(t, f.Delta.Equal(dec("-200")))
		}
	}
	assert.True(t, found, "large POS discount total should be flagged")
}

func TestCompareBankedAmountAnnotation(t *testing.T) {
	r := NewReconciler(defaultTolerance(), nil)

	agg := aggWith(map[model.PaymentBucket]string{model.PaymentCash: "5000"}, "5000")
	form := &model.StaffShiftForm{
		ShiftDate:    testShiftDate,
		CashSales:    dec("5000"),
		TotalSales:   dec("5000"),
		BankedAmount: dec("2000"),
	}

	flags, annotations := r.Compare(agg, form)

	// Banking cash is not a sales discrepancy.
	assert.Empty(t, flags)
	require.Len(t, annotations, 1)
	assert.Equal(t, model.CodeBankedAmountPresent, annotations[0].Code)
	assert.Equal(t, model.SeverityInfo, annotations[0].Severity)
}

func TestComparePerFieldOverride(t *testing.T) {
	overrides := map[string]Tolerance{
		FieldGrab: {Absolute: dec("500"), Relative: dec("0.05")},
	}
	r := NewReconciler(defaultTolerance(), overrides)

	agg := aggWith(map[model.PaymentBucket]string{model.PaymentGrab: "1000"}, "1000")
	form := &model.StaffShiftForm{
		ShiftDate:  testShiftDate,
		GrabSales:  dec("1300"),
		TotalSales: dec("1000"),
	}

	flags, _ := r.Compare(agg, form)
	for _, f := range flags {
		assert.NotEqual(t, FieldGrab, f.Field, "override should absorb the Grab delta")
	}
}
