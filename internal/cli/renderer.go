package cli

import (
	"fmt"
	"strings"

	"github.com/lastorders/closeout/internal/aggregate"
	"github.com/lastorders/closeout/internal/model"
)

// RenderReport formats a variance report for the terminal.
func RenderReport(report *model.ShiftVarianceReport) string {
	var b strings.Builder

	b.WriteString(FormatTitle("Shift Variance Report " + report.ShiftDate.Format("2006-01-02")))
	b.WriteString("\n")
	if report.OverallFlagged {
		b.WriteString(FormatWarning("Shift flagged for review"))
	} else {
		b.WriteString(FormatSuccess("Shift within tolerance"))
	}
	b.WriteString("\n\n")

	b.WriteString(renderSales(report.Sales))
	b.WriteString("\n")
	b.WriteString(renderStock(report.Stock))

	if len(report.Annotations) > 0 {
		b.WriteString("\n")
		b.WriteString(renderAnnotations(report.Annotations))
	}

	return b.String()
}

func renderSales(flags []model.DiscrepancyFlag) string {
	var b strings.Builder
	b.WriteString(BoldStyle.Render("Sales Reconciliation"))
	b.WriteString("\n")

	if len(flags) == 0 {
		b.WriteString(SubtleStyle.Render("  all channels within tolerance"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("  %-14s %12s %12s %10s", "Field", "POS", "Staff", "Delta")))
	b.WriteString("\n")
	for _, f := range flags {
		row := fmt.Sprintf("  %-14s %12s %12s %10s",
			f.Field,
			f.PosValue.StringFixed(2),
			f.StaffValue.StringFixed(2),
			f.Delta.StringFixed(2))
		if f.Severity == model.SeverityWarn {
			row = WarningStyle.Render(row)
		} else {
			row = SubtleStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func renderStock(lines []model.StockVarianceLine) string {
	var b strings.Builder
	b.WriteString(BoldStyle.Render("Stock Variance"))
	b.WriteString("\n")

	if len(lines) == 0 {
		b.WriteString(SubtleStyle.Render("  no stock counts on file"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("  %-12s %-6s %10s %10s %10s", "Ingredient", "Unit", "Expected", "Actual", "Variance")))
	b.WriteString("\n")
	for _, l := range lines {
		row := fmt.Sprintf("  %-12s %-6s %10s %10s %10s",
			l.Ingredient,
			l.Unit,
			l.Expected.StringFixed(2),
			l.Actual.StringFixed(2),
			l.Variance.StringFixed(2))
		switch {
		case l.Flagged:
			row = WarningStyle.Render(row + "  " + WarningIcon)
		default:
			row = SubtleStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
		if l.OverUsage {
			b.WriteString(WarningStyle.Render("    usage exceeds available stock"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderAnnotations(annotations []model.Annotation) string {
	var b strings.Builder
	b.WriteString(BoldStyle.Render("Annotations"))
	b.WriteString("\n")
	for _, a := range annotations {
		line := "  " + string(a.Code) + ": " + a.Message
		if a.File != "" {
			line += " (" + a.File + ")"
		}
		if a.Severity == model.SeverityWarn {
			b.WriteString(WarningStyle.Render(line))
		} else {
			b.WriteString(InfoStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderShiftSummary formats the ingest result for one shift.
func RenderShiftSummary(data *aggregate.ShiftData) string {
	agg := data.Aggregate

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Gross sales:   %s\n", agg.GrossSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Net sales:     %s\n", agg.NetSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Discounts:     %s\n", agg.Discounts.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Receipts:      %d\n", agg.ReceiptCount))

	b.WriteString("Payments:\n")
	for _, bucket := range model.PaymentBucketOrder {
		total := agg.PaymentTotal(bucket)
		if total.IsZero() {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-10s %12s\n", string(bucket), total.StringFixed(2)))
	}

	if len(agg.TopItems) > 0 {
		b.WriteString("Top items:\n")
		for _, item := range agg.TopItems {
			b.WriteString(fmt.Sprintf("  %-30s x%s\n", item.Name, item.Quantity.String()))
		}
	}

	return RenderBox("Shift "+agg.ShiftDate.Format("2006-01-02"), strings.TrimRight(b.String(), "\n"))
}
