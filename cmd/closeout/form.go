package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/lastorders/closeout/internal/cli"
	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/model"
	"github.com/lastorders/closeout/internal/posfile"
	"github.com/lastorders/closeout/internal/service"
)

func formCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Manage staff-submitted sales and stock forms",
	}

	cmd.AddCommand(formImportCmd())
	cmd.AddCommand(formShowCmd())

	return cmd
}

func formImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Import staff forms from a CSV export",
		Long: `Import Daily Sales & Stock forms from a CSV export.

Column headers are matched loosely, so both the hand-maintained historical
sheet and newer form exports work. One row becomes one form, keyed by shift
date; re-importing a date replaces the stored form. When a row has no opening
stock counts, the previous shift's closing counts are carried forward.`,
		Args: cobra.ExactArgs(1),
		RunE: runFormImport,
	}
	return cmd
}

func formShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored form for a shift date",
		RunE:  runFormShow,
	}
	cmd.Flags().StringP("date", "d", "", "Shift date (2006-01-02)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func runFormImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open form export: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}
	columns := newColumnIndex(header)

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read form rows: %w", err)
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing staff forms..."),
	)

	imported := 0
	for i, record := range records {
		form, err := parseFormRow(columns, record)
		if err != nil {
			slog.Warn("Skipping form row", "row", i+2, "error", err)
			continue
		}

		fillStartCounts(ctx, store, form)

		if err := store.SaveStaffForm(ctx, form); err != nil {
			return fmt.Errorf("failed to save form for %s: %w",
				form.ShiftDate.Format("2006-01-02"), err)
		}
		imported++
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
	fmt.Fprintln(os.Stderr)

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d of %d forms", imported, len(records))))
	return nil
}

func runFormShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	raw, _ := cmd.Flags().GetString("date")
	shiftDate, err := parseShiftDate(raw)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	form, err := store.GetStaffForm(ctx, shiftDate)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("no form on file for %s", shiftDate.Format("2006-01-02"))
		}
		return err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Completed by:  %s (%s shift)\n", form.CompletedBy, form.Shift))
	b.WriteString(fmt.Sprintf("Total sales:   %s\n", form.TotalSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Cash sales:    %s\n", form.CashSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("QR sales:      %s\n", form.QRSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Grab:          %s\n", form.GrabSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("FoodPanda:     %s\n", form.FoodPandaSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Aroi Dee:      %s\n", form.AroiDeeSales.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Expenses:      %s\n", form.TotalExpenses.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Banked:        %s\n", form.BankedAmount.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Buns:          start %s, purchased %s, end %s\n",
		form.Buns.Start.String(), form.Buns.Purchased.String(), form.Buns.End.String()))
	b.WriteString(fmt.Sprintf("Meat (g):      start %s, purchased %s, end %s\n",
		form.MeatGrams.Start.String(), form.MeatGrams.Purchased.String(), form.MeatGrams.End.String()))
	b.WriteString(fmt.Sprintf("Drinks:        start %s, purchased %s, end %s",
		form.Drinks.Start.String(), form.Drinks.Purchased.String(), form.Drinks.End.String()))

	fmt.Println(cli.RenderBox("Staff Form "+shiftDate.Format("2006-01-02"), b.String()))
	return nil
}

// columnIndex maps normalized header names to record positions.
type columnIndex struct {
	byName map[string]int
}

func newColumnIndex(header []string) *columnIndex {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeColumn(h)
		if _, exists := byName[name]; !exists {
			byName[name] = i
		}
	}
	return &columnIndex{byName: byName}
}

// lookup returns the first cell whose normalized header matches a candidate,
// exactly first and then by prefix.
func (c *columnIndex) lookup(record []string, candidates ...string) string {
	for _, want := range candidates {
		if i, ok := c.byName[want]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
	}
	for _, want := range candidates {
		for name, i := range c.byName {
			if strings.HasPrefix(name, want) && i < len(record) {
				return strings.TrimSpace(record[i])
			}
		}
	}
	return ""
}

var columnCleaner = strings.NewReplacer("?", "", ":", "", "/", " ", "(", " ", ")", " ", ".", "")

func normalizeColumn(h string) string {
	return strings.Join(strings.Fields(columnCleaner.Replace(strings.ToLower(h))), " ")
}

// formDateLayouts covers ISO dates plus the month-first format the form
// provider exports.
var formDateLayouts = []string{"2006-01-02", "1/2/2006", "1/2/06"}

func parseFormRow(columns *columnIndex, record []string) (*model.StaffShiftForm, error) {
	rawDate := columns.lookup(record, "todays date", "date")
	if rawDate == "" {
		return nil, fmt.Errorf("row has no date")
	}

	var shiftDate time.Time
	var err error
	for _, layout := range formDateLayouts {
		shiftDate, err = time.ParseInLocation(layout, rawDate, time.UTC)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("unparseable date %q", rawDate)
	}

	form := &model.StaffShiftForm{
		ShiftDate:   shiftDate,
		CompletedBy: columns.lookup(record, "who is completing form", "completed by"),
		Shift:       columns.lookup(record, "shift"),

		CashAtStart:    money(columns.lookup(record, "cash at start of shift", "cash at start")),
		CashSales:      money(columns.lookup(record, "cash sales")),
		QRSales:        money(columns.lookup(record, "qr scan", "qr sales", "qr")),
		GrabSales:      money(columns.lookup(record, "grab")),
		FoodPandaSales: money(columns.lookup(record, "food panda", "foodpanda")),
		AroiDeeSales:   money(columns.lookup(record, "aroi dee", "aroidee")),
		CardSales:      money(columns.lookup(record, "card sales", "card")),
		TotalSales:     money(columns.lookup(record, "total sales amount", "total sales")),
		TotalExpenses:  money(columns.lookup(record, "total expenses")),
		BankedAmount:   money(columns.lookup(record, "banked amount", "banked")),
		CashInRegister: money(columns.lookup(record, "total cash in the register", "cash in register")),

		Buns: model.StockCount{
			Start:     money(columns.lookup(record, "buns start")),
			Purchased: money(columns.lookup(record, "how many rolls ordered", "buns purchased")),
			End:       money(columns.lookup(record, "how many burger buns in stock", "buns end")),
		},
		MeatGrams: model.StockCount{
			Start:     money(columns.lookup(record, "meat start")),
			Purchased: money(columns.lookup(record, "meat purchased")),
			End:       money(columns.lookup(record, "weight of burger meat", "meat end")),
		},
		Drinks: model.StockCount{
			Start:     money(columns.lookup(record, "drinks start")),
			Purchased: money(columns.lookup(record, "drinks purchased")),
			End:       drinksEnd(columns, record),
		},
	}

	return form, nil
}

// drinkColumns are the per-flavour stock counts on the historical sheet,
// summed when the export has no single drinks total.
var drinkColumns = []string{
	"coke", "coke zero", "schweppes manow", "fanta strawberry", "orange fanta",
	"sprite", "kids apple juice", "kids orange", "soda water", "bottle water",
}

func drinksEnd(columns *columnIndex, record []string) decimal.Decimal {
	if raw := columns.lookup(record, "drinks end", "drinks in stock"); raw != "" {
		return money(raw)
	}

	total := decimal.Zero
	for _, col := range drinkColumns {
		if i, ok := columns.byName[col]; ok && i < len(record) {
			total = total.Add(money(record[i]))
		}
	}
	return total
}

// fillStartCounts carries the previous shift's closing counts forward when
// the row itself has no opening counts.
func fillStartCounts(ctx context.Context, store service.Storage, form *model.StaffShiftForm) {
	if !form.Buns.Start.IsZero() || !form.MeatGrams.Start.IsZero() || !form.Drinks.Start.IsZero() {
		return
	}

	prev, err := store.GetStaffForm(ctx, form.ShiftDate.AddDate(0, 0, -1))
	if err != nil {
		return
	}

	form.Buns.Start = prev.Buns.End
	form.MeatGrams.Start = prev.MeatGrams.End
	form.Drinks.Start = prev.Drinks.End
}

// money parses a currency or count cell, treating blanks and dashes as zero.
func money(raw string) decimal.Decimal {
	value, _ := posfile.CleanNumber(raw)
	return value
}
