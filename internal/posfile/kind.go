// Package posfile parses and normalizes POS export files into typed row
// lists. Export layouts vary by provider version, so the contract here is
// best-effort column matching with graceful degradation, never a fixed schema.
package posfile

import (
	"path/filepath"
	"strings"

	"github.com/lastorders/closeout/internal/model"
)

// filenameHints are checked in order against the lower-cased base filename.
// More specific hints come first: "item sales" files also contain "sales".
var filenameHints = []struct {
	needle string
	kind   model.SourceKind
}{
	{"receipt", model.KindReceipts},
	{"modifier", model.KindModifierSales},
	{"payment", model.KindPaymentTypeSales},
	{"item", model.KindItemSales},
	{"shift", model.KindShiftReport},
	{"summary", model.KindSalesSummary},
	{"sales", model.KindSalesSummary},
}

// headerHints identify a source kind by a column name unique to its layout.
var headerHints = []struct {
	column string
	kind   model.SourceKind
}{
	{"receipt number", model.KindReceipts},
	{"receipt no.", model.KindReceipts},
	{"modifier", model.KindModifierSales},
	{"payment type", model.KindPaymentTypeSales},
	{"items sold", model.KindItemSales},
	{"item name", model.KindItemSales},
	{"expected cash", model.KindShiftReport},
	{"shift number", model.KindShiftReport},
	{"gross sales", model.KindSalesSummary},
}

// InferKind determines the source kind of an export. Filename hints take
// priority; header sniffing is the fallback when the filename is ambiguous.
func InferKind(filename string, header []string) model.SourceKind {
	base := strings.ToLower(filepath.Base(filename))
	for _, h := range filenameHints {
		if strings.Contains(base, h.needle) {
			return h.kind
		}
	}

	for _, h := range headerHints {
		for _, col := range header {
			if strings.Contains(strings.ToLower(strings.TrimSpace(col)), h.column) {
				return h.kind
			}
		}
	}

	return model.KindUnknown
}
