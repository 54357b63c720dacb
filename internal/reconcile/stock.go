package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/lastorders/closeout/internal/model"
)

// Tracked ingredient names and their units.
const (
	IngredientBuns   = "Buns"
	IngredientMeat   = "Meat"
	IngredientDrinks = "Drinks"

	UnitCount = "count"
	UnitGrams = "g"
)

// StockThresholds holds the per-ingredient variance thresholds. Countable
// units and weight-based units need very different magnitudes, which is why
// they are configured separately.
type StockThresholds struct {
	Buns      decimal.Decimal
	MeatGrams decimal.Decimal
	Drinks    decimal.Decimal
}

// StockCalculator compares estimated ingredient usage against the staff
// form's physical counts.
type StockCalculator struct {
	thresholds   StockThresholds
	overUseRatio decimal.Decimal
}

// NewStockCalculator creates a calculator. overUseRatio is the multiple of
// available stock beyond which usage itself is suspicious (e.g. 1.10 flags
// usage above 110% of start plus purchases).
func NewStockCalculator(thresholds StockThresholds, overUseRatio decimal.Decimal) *StockCalculator {
	return &StockCalculator{thresholds: thresholds, overUseRatio: overUseRatio}
}

// Compare computes expected-vs-actual lines for every tracked ingredient.
// Expected ending stock is start plus purchases minus estimated usage;
// variance is the reported ending count minus that. A usage figure that
// exceeds the over-use ratio of available stock is flagged even when the
// ending count nominally balances, since it usually means over-counting or
// unrecorded purchases are masking loss.
func (c *StockCalculator) Compare(est model.UsageEstimate, form *model.StaffShiftForm) []model.StockVarianceLine {
	if form == nil {
		return nil
	}

	return []model.StockVarianceLine{
		c.line(IngredientBuns, UnitCount, form.Buns, est.ExpectedBuns, c.thresholds.Buns),
		c.line(IngredientMeat, UnitGrams, form.MeatGrams, est.ExpectedMeatGrams, c.thresholds.MeatGrams),
		c.line(IngredientDrinks, UnitCount, form.Drinks, est.ExpectedDrinks, c.thresholds.Drinks),
	}
}

func (c *StockCalculator) line(name, unit string, count model.StockCount, usage, threshold decimal.Decimal) model.StockVarianceLine {
	available := count.Start.Add(count.Purchased)
	expected := available.Sub(usage)
	variance := count.End.Sub(expected)

	overUse := available.Sign() > 0 && usage.GreaterThan(available.Mul(c.overUseRatio))

	return model.StockVarianceLine{
		Ingredient: name,
		Unit:       unit,
		Expected:   expected,
		Actual:     count.End,
		Variance:   variance,
		Threshold:  threshold,
		Flagged:    variance.Abs().GreaterThan(threshold) || overUse,
		OverUsage:  overUse,
	}
}
