// Package usage derives expected ingredient consumption from item-level
// sales using the recipe definition table.
package usage

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lastorders/closeout/internal/model"
)

// defaultGramsPerPatty is the standard meat portion per smashed patty.
const defaultGramsPerPatty = 95

// DefaultRecipes is the ordered recipe table, most specific handle first so
// "kids double cheeseburger" resolves before the generic "double" variants.
// Chicken items carry zero patties and still consume a bun.
var DefaultRecipes = []model.RecipeDefinition{
	{Handle: "mix and match meal deal", SKU: "10069", MeatPatties: 3, Buns: 1},
	{Handle: "triple decker super bacon and cheese", SKU: "10008", MeatPatties: 3, Buns: 1},
	{Handle: "kids double cheeseburger", SKU: "10017", MeatPatties: 2, Buns: 1},
	{Handle: "kids single cheeseburger", SKU: "10015", MeatPatties: 1, Buns: 1},
	{Handle: "kids meal set", SKU: "10003", MeatPatties: 1, Buns: 1},
	{Handle: "super double bacon", SKU: "10019", MeatPatties: 2, Buns: 1},
	{Handle: "super single bacon", SKU: "10038", MeatPatties: 1, Buns: 1},
	{Handle: "triple smash", SKU: "10009", MeatPatties: 3, Buns: 1},
	{Handle: "double set", SKU: "10032", MeatPatties: 2, Buns: 1},
	{Handle: "single meal set", SKU: "10033", MeatPatties: 1, Buns: 1},
	{Handle: "single smash", SKU: "10004", MeatPatties: 1, Buns: 1},
	{Handle: "ultimate double", SKU: "10006", MeatPatties: 2, Buns: 1},
	{Handle: "chicken", SKU: "", MeatPatties: 0, Buns: 1},
}

// pattyModifierNeedles mark add-on modifiers that consume an extra patty.
var pattyModifierNeedles = []string{"extra patty", "add patty", "add beef"}

// Estimator maps burger and drink sales to expected stock consumption.
type Estimator struct {
	recipes       []model.RecipeDefinition
	gramsPerPatty decimal.Decimal
}

// NewEstimator creates an estimator. Empty recipe tables fall back to
// DefaultRecipes; a non-positive portion weight falls back to the standard
// 95 g patty.
func NewEstimator(recipes []model.RecipeDefinition, gramsPerPatty int) *Estimator {
	if len(recipes) == 0 {
		recipes = DefaultRecipes
	}
	if gramsPerPatty <= 0 {
		gramsPerPatty = defaultGramsPerPatty
	}
	return &Estimator{
		recipes:       recipes,
		gramsPerPatty: decimal.NewFromInt(int64(gramsPerPatty)),
	}
}

// Estimate folds the shift's sold items and modifiers into expected bun,
// meat and drink usage. Burgers with no recipe match default to one patty and
// one bun (adjusted for double/triple name variants) and surface exactly one
// unmapped-item annotation per distinct name.
func (e *Estimator) Estimate(items, modifiers []model.CanonicalLineItem) (model.UsageEstimate, []model.Annotation) {
	est := model.UsageEstimate{
		ExpectedBuns:      decimal.Zero,
		ExpectedMeatGrams: decimal.Zero,
		ExpectedDrinks:    decimal.Zero,
	}

	var annotations []model.Annotation
	warned := make(map[string]bool)

	for _, item := range items {
		switch item.Category {
		case model.CategoryDrink:
			est.ExpectedDrinks = est.ExpectedDrinks.Add(item.Quantity)
		case model.CategoryBurger:
			patties, buns, mapped := e.lookup(item)
			if !mapped && !warned[item.Name] {
				warned[item.Name] = true
				annotations = append(annotations, model.Annotation{
					Code:     model.CodeUnmappedItem,
					Severity: model.SeverityInfo,
					Message:  fmt.Sprintf("no recipe for %q, assuming %d patty %d bun", item.Name, patties, buns),
				})
			}
			est.ExpectedBuns = est.ExpectedBuns.Add(item.Quantity.Mul(decimal.NewFromInt(int64(buns))))
			est.ExpectedMeatGrams = est.ExpectedMeatGrams.Add(
				item.Quantity.Mul(decimal.NewFromInt(int64(patties))).Mul(e.gramsPerPatty))
		}
	}

	for _, mod := range modifiers {
		if isPattyModifier(mod.Name) {
			est.ExpectedMeatGrams = est.ExpectedMeatGrams.Add(mod.Quantity.Mul(e.gramsPerPatty))
		}
	}

	return est, annotations
}

// lookup resolves an item to its recipe by SKU first, then by normalized
// handle substring. Unmatched items fall back to the name-variant default.
func (e *Estimator) lookup(item model.CanonicalLineItem) (patties, buns int, mapped bool) {
	if item.SKU != "" {
		for _, r := range e.recipes {
			if r.SKU != "" && r.SKU == item.SKU {
				return r.MeatPatties, r.Buns, true
			}
		}
	}

	name := normalizeHandle(item.Name)
	for _, r := range e.recipes {
		if strings.Contains(name, normalizeHandle(r.Handle)) {
			return r.MeatPatties, r.Buns, true
		}
	}

	return variantPatties(name), 1, false
}

// variantPatties reads the patty count off the item name when no recipe
// matched: "double" variants take two patties, "triple" three.
func variantPatties(normalizedName string) int {
	switch {
	case strings.Contains(normalizedName, "triple"):
		return 3
	case strings.Contains(normalizedName, "double"):
		return 2
	default:
		return 1
	}
}

func isPattyModifier(name string) bool {
	lower := strings.ToLower(name)
	for _, needle := range pattyModifierNeedles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

var handleReplacer = strings.NewReplacer("-", " ", "_", " ", "(", "", ")", "", "\"", "", ".", "", "&", "and")

// normalizeHandle lower-cases and flattens separators so menu handles like
// "double-set-(meal-deal)" match display names like "Double Set (Meal Deal)".
func normalizeHandle(s string) string {
	s = handleReplacer.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
