package reconcile

import (
	"sort"
	"time"

	"github.com/lastorders/closeout/internal/model"
)

// Assemble merges reconciler and stock variance output into the final
// report. It adds no business logic beyond ordering: sales flags sort by
// severity then field name, annotations by severity, code, then message, so
// two runs over identical inputs produce identical reports.
func Assemble(shiftDate time.Time, sales []model.DiscrepancyFlag, stock []model.StockVarianceLine, annotations []model.Annotation) *model.ShiftVarianceReport {
	sortedSales := make([]model.DiscrepancyFlag, len(sales))
	copy(sortedSales, sales)
	sort.SliceStable(sortedSales, func(i, j int) bool {
		if sortedSales[i].Severity != sortedSales[j].Severity {
			return severityRank(sortedSales[i].Severity) < severityRank(sortedSales[j].Severity)
		}
		return sortedSales[i].Field < sortedSales[j].Field
	})

	sortedAnnotations := make([]model.Annotation, len(annotations))
	copy(sortedAnnotations, annotations)
	sort.SliceStable(sortedAnnotations, func(i, j int) bool {
		a, b := sortedAnnotations[i], sortedAnnotations[j]
		if a.Severity != b.Severity {
			return severityRank(a.Severity) < severityRank(b.Severity)
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})

	flagged := false
	for _, f := range sortedSales {
		if f.Severity == model.SeverityWarn {
			flagged = true
			break
		}
	}
	if !flagged {
		for _, s := range stock {
			if s.Flagged {
				flagged = true
				break
			}
		}
	}

	return &model.ShiftVarianceReport{
		ShiftDate:      shiftDate,
		Sales:          sortedSales,
		Stock:          stock,
		Annotations:    sortedAnnotations,
		OverallFlagged: flagged,
	}
}

func severityRank(s model.Severity) int {
	if s == model.SeverityWarn {
		return 0
	}
	return 1
}
