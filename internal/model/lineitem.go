package model

import "github.com/shopspring/decimal"

// Category is the menu category assigned to a sold item by the ordered
// classification rules.
type Category string

// Category constants.
const (
	CategoryBurger Category = "BURGER"
	CategoryDrink  Category = "DRINK"
	CategorySide   Category = "SIDE"
	CategoryExtra  Category = "EXTRA"
	CategoryOther  Category = "OTHER"
)

// CanonicalLineItem is a normalized sold item with cleaned numeric fields.
type CanonicalLineItem struct {
	Name        string
	SKU         string
	Quantity    decimal.Decimal
	GrossAmount decimal.Decimal
	Category    Category
}
