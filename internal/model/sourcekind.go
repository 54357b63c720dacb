// Package model defines the core domain types for the close-out engine.
package model

// SourceKind identifies which POS export layout a file (and its rows) came from.
type SourceKind string

// Source kind constants.
const (
	KindSalesSummary     SourceKind = "SALES_SUMMARY"
	KindItemSales        SourceKind = "ITEM_SALES"
	KindPaymentTypeSales SourceKind = "PAYMENT_TYPE_SALES"
	KindReceipts         SourceKind = "RECEIPTS"
	KindModifierSales    SourceKind = "MODIFIER_SALES"
	KindShiftReport      SourceKind = "SHIFT_REPORT"
	KindUnknown          SourceKind = "UNKNOWN"
)

// ExportFile is one POS export handed to the engine. Kind may be KindUnknown,
// in which case the canonicalizer infers it from the filename or header row.
type ExportFile struct {
	Kind     SourceKind
	Filename string
	Data     []byte
}

// RawPosRow is a single record from one POS export file. Field values are
// untyped strings keyed by normalized header name; rows exist only during
// canonicalization.
type RawPosRow struct {
	Fields map[string]string
	Kind   SourceKind
	File   string
	Line   int
}
