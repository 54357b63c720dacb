package model

import "github.com/shopspring/decimal"

// UsageEstimate is the expected ingredient consumption derived from one
// shift's item-level sales.
type UsageEstimate struct {
	ExpectedBuns      decimal.Decimal
	ExpectedMeatGrams decimal.Decimal
	ExpectedDrinks    decimal.Decimal
}
