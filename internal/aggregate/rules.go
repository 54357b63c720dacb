// Package aggregate folds canonicalized POS rows into one shift aggregate.
package aggregate

import (
	"strings"

	"github.com/lastorders/closeout/internal/model"
)

// CategoryRule assigns a category to any item whose lower-cased name contains
// one of the keywords.
type CategoryRule struct {
	Category model.Category
	Keywords []string
}

// DefaultCategoryRules is the ordered classification policy. Rules are
// evaluated top to bottom and the first match wins, so order carries meaning:
// the burger rule precedes the extras rule because "bacon cheeseburger" must
// classify as a burger even though "bacon" and "cheese" are extras keywords.
var DefaultCategoryRules = []CategoryRule{
	{Category: model.CategoryBurger, Keywords: []string{"burger", "smash", "triple decker"}},
	{Category: model.CategorySide, Keywords: []string{"fries", "rings", "nugget", "side", "coleslaw"}},
	{Category: model.CategoryExtra, Keywords: []string{"cheese", "bacon", "patty", "animal style", "extra"}},
	{Category: model.CategoryDrink, Keywords: []string{"coke", "cola", "pepsi", "sprite", "fanta", "water", "juice", "beer", "tea", "coffee", "soda", "schweppes", "drink"}},
}

// Classifier evaluates an ordered category rule list.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier creates a classifier. A nil or empty rule list falls back to
// DefaultCategoryRules.
func NewClassifier(rules []CategoryRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultCategoryRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the category for an item name; items matching no rule are
// CategoryOther.
func (c *Classifier) Classify(name string) model.Category {
	lower := strings.ToLower(name)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return model.CategoryOther
}
