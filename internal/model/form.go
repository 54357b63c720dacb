package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockCount holds the staff-reported counts for one tracked ingredient.
type StockCount struct {
	Start     decimal.Decimal
	Purchased decimal.Decimal
	End       decimal.Decimal
}

// StaffShiftForm is the manually submitted Daily Sales & Stock record for one
// shift date. It is read-only input to the engine; form validation happens
// upstream at submission time.
type StaffShiftForm struct {
	ShiftDate   time.Time
	CompletedBy string
	Shift       string

	CashAtStart    decimal.Decimal
	CashSales      decimal.Decimal
	QRSales        decimal.Decimal
	GrabSales      decimal.Decimal
	FoodPandaSales decimal.Decimal
	AroiDeeSales   decimal.Decimal
	CardSales      decimal.Decimal
	TotalSales     decimal.Decimal
	TotalExpenses  decimal.Decimal
	BankedAmount   decimal.Decimal
	CashInRegister decimal.Decimal

	Buns      StockCount
	MeatGrams StockCount
	Drinks    StockCount
}

// ChannelTotal returns the declared sales figure for a payment bucket.
// Buckets the form does not track report zero.
func (f *StaffShiftForm) ChannelTotal(b PaymentBucket) decimal.Decimal {
	switch b {
	case PaymentCash:
		return f.CashSales
	case PaymentQR:
		return f.QRSales
	case PaymentGrab:
		return f.GrabSales
	case PaymentFoodPanda:
		return f.FoodPandaSales
	case PaymentAroiDee:
		return f.AroiDeeSales
	case PaymentCard:
		return f.CardSales
	}
	return decimal.Zero
}
