package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastorders/closeout/internal/model"
)

// defaultThresholds mirrors the shipped defaults.
func defaultThresholds() StockThresholds {
	return StockThresholds{
		Buns:      dec("5"),
		MeatGrams: dec("500"),
		Drinks:    dec("2"),
	}
}

func stockCalc() *StockCalculator {
	return NewStockCalculator(defaultThresholds(), dec("1.10"))
}

func TestStockCompareNilForm(t *testing.T) {
	assert.Nil(t, stockCalc().Compare(model.UsageEstimate{}, nil))
}

func TestStockCompareBalancedWithinThreshold(t *testing.T) {
	form := &model.StaffShiftForm{
		Buns: model.StockCount{Start: dec("100"), Purchased: dec("40"), End: dec("18")},
	}
	est := model.UsageEstimate{
		ExpectedBuns:      dec("120"),
		ExpectedMeatGrams: dec("0"),
		ExpectedDrinks:    dec("0"),
	}

	lines := stockCalc().Compare(est, form)
	require.Len(t, lines, 3)

	buns := lines[0]
	assert.Equal(t, IngredientBuns, buns.Ingredient)
	assert.Equal(t, UnitCount, buns.Unit)
	assert.True(t, buns.Expected.Equal(dec("20")), "100+40-120")
	assert.True(t, buns.Actual.Equal(dec("18")))
	assert.True(t, buns.Variance.Equal(dec("-2")))
	assert.False(t, buns.Flagged, "variance of 2 sits inside the threshold of 5")
	assert.False(t, buns.OverUsage)
}

func TestStockCompareVarianceBoundary(t *testing.T) {
	calc := stockCalc()

	tests := []struct {
		name        string
		end         string
		wantFlagged bool
	}{
		{name: "exactly at threshold", end: "15", wantFlagged: false}, // expected 20, variance -5
		{name: "one past threshold", end: "14", wantFlagged: true},
		{name: "surplus past threshold", end: "26", wantFlagged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := &model.StaffShiftForm{
				Buns: model.StockCount{Start: dec("100"), Purchased: dec("40"), End: dec(tt.end)},
			}
			lines := calc.Compare(model.UsageEstimate{ExpectedBuns: dec("120")}, form)
			assert.Equal(t, tt.wantFlagged, lines[0].Flagged)
		})
	}
}

func TestStockCompareOverUsage(t *testing.T) {
	// Usage above 110% of available stock is flagged even when the ending
	// count nominally balances.
	form := &model.StaffShiftForm{
		MeatGrams: model.StockCount{Start: dec("5000"), Purchased: dec("0"), End: dec("0")},
	}
	est := model.UsageEstimate{ExpectedMeatGrams: dec("5700")}

	lines := stockCalc().Compare(est, form)
	meat := lines[1]

	assert.Equal(t, IngredientMeat, meat.Ingredient)
	assert.Equal(t, UnitGrams, meat.Unit)
	assert.True(t, meat.OverUsage)
	assert.True(t, meat.Flagged)
}

func TestStockCompareOverUsageNeedsAvailableStock(t *testing.T) {
	// With no counted stock at all, usage alone cannot trip the over-use
	// check; the variance check still applies.
	form := &model.StaffShiftForm{}
	est := model.UsageEstimate{ExpectedDrinks: dec("10")}

	lines := stockCalc().Compare(est, form)
	drinks := lines[2]

	assert.False(t, drinks.OverUsage)
	assert.True(t, drinks.Flagged, "expected -10 vs actual 0 exceeds drinks threshold")
}
