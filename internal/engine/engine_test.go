package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastorders/closeout/internal/aggregate"
	"github.com/lastorders/closeout/internal/config"
	"github.com/lastorders/closeout/internal/model"
	"github.com/lastorders/closeout/internal/posfile"
	"github.com/lastorders/closeout/internal/reconcile"
)

var testShiftDate = time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		BusinessDayStartHour: 17,
		UTCOffset:            7 * time.Hour,
		DefaultTolerance: reconcile.Tolerance{
			Absolute: decimal.NewFromInt(50),
			Relative: decimal.NewFromFloat(0.01),
		},
		StockThresholds: reconcile.StockThresholds{
			Buns:      decimal.NewFromInt(5),
			MeatGrams: decimal.NewFromInt(500),
			Drinks:    decimal.NewFromInt(2),
		},
		OverUseRatio:  decimal.NewFromFloat(1.10),
		GramsPerPatty: 95,
	}
}

func testFiles() []model.ExportFile {
	return []model.ExportFile{
		{
			Filename: "item-sales.csv",
			Data: []byte("Item name,SKU,Items sold,Net sales\n" +
				"Single Smash,10004,7,1050\n" +
				"Coke,,5,250\n"),
		},
		{
			Filename: "payment-type-sales.csv",
			Data: []byte("Payment type,Payment amount\n" +
				"Cash,5000\n" +
				"QR / Scan,3000\n"),
		},
	}
}

func testForm() *model.StaffShiftForm {
	return &model.StaffShiftForm{
		ShiftDate:  testShiftDate,
		CashSales:  decimal.NewFromInt(5060),
		QRSales:    decimal.NewFromInt(3000),
		TotalSales: decimal.NewFromInt(8060),
		Buns:       model.StockCount{Start: decimal.NewFromInt(20), End: decimal.NewFromInt(13)},
		MeatGrams:  model.StockCount{Start: decimal.NewFromInt(1000), End: decimal.NewFromInt(300)},
		Drinks:     model.StockCount{Start: decimal.NewFromInt(10), End: decimal.NewFromInt(5)},
	}
}

func TestRunEndToEnd(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	report, err := eng.Run(context.Background(), RunInput{
		ShiftDate: testShiftDate,
		Files:     testFiles(),
		Form:      testForm(),
	})
	require.NoError(t, err)

	assert.Equal(t, testShiftDate, report.ShiftDate)

	// Cash is off by 60, past the 50/1% tolerance; QR matches exactly.
	var fields []string
	for _, f := range report.Sales {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, reconcile.FieldCash)
	assert.NotContains(t, fields, reconcile.FieldQR)
	assert.True(t, report.OverallFlagged)

	// Stock lines always come back in ingredient order.
	require.Len(t, report.Stock, 3)
	assert.Equal(t, reconcile.IngredientBuns, report.Stock[0].Ingredient)
	assert.Equal(t, reconcile.IngredientMeat, report.Stock[1].Ingredient)
	assert.Equal(t, reconcile.IngredientDrinks, report.Stock[2].Ingredient)

	// 7 singles: 7 buns expected, 20-7=13 on hand matches the count.
	assert.True(t, report.Stock[0].Expected.Equal(decimal.NewFromInt(13)))
	assert.False(t, report.Stock[0].Flagged)
}

func TestRunWithoutForm(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	report, err := eng.Run(context.Background(), RunInput{
		ShiftDate: testShiftDate,
		Files:     testFiles(),
	})
	require.NoError(t, err)

	assert.Empty(t, report.Stock)
	require.Len(t, report.Sales, 1)
	assert.Equal(t, reconcile.FieldStaffForm, report.Sales[0].Field)
	assert.False(t, report.OverallFlagged)

	var codes []model.AnnotationCode
	for _, a := range report.Annotations {
		codes = append(codes, a.Code)
	}
	assert.Contains(t, codes, model.CodeMissingForm)
}

func TestRunDeterministic(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	input := RunInput{ShiftDate: testShiftDate, Files: testFiles(), Form: testForm()}

	first, err := eng.Run(context.Background(), input)
	require.NoError(t, err)

	// Concurrent folding must not leak scheduling order into the report.
	for i := 0; i < 20; i++ {
		again, err := eng.Run(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildShiftDataMatchesSequentialFold(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	concurrent, err := eng.BuildShiftData(context.Background(), testShiftDate, testFiles())
	require.NoError(t, err)

	decoder := posfile.NewDecoder()
	agg := aggregate.NewAggregator(aggregate.DefaultCategoryRules, aggregate.DefaultPaymentSynonyms)

	var partials []*aggregate.Partial
	for _, f := range testFiles() {
		result, err := decoder.Decode(f)
		require.NoError(t, err)
		partials = append(partials, agg.FoldRows(result.Rows))
	}
	sequential := agg.Merge(testShiftDate, partials)

	assert.Equal(t, sequential.Aggregate, concurrent.Aggregate)
}

func TestBuildShiftDataDropsRowsOutsideShiftWindow(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	// 19:30 local falls inside the 2025-07-03 shift; 12:00 local is before
	// the 17:00 start and belongs to the previous business day.
	files := []model.ExportFile{{
		Filename: "receipts.csv",
		Data: []byte("Receipt number,Date,Total\n" +
			"#1001,2025-07-03 19:30:00,400\n" +
			"#1002,2025-07-03 12:00:00,350\n"),
	}}

	data, err := eng.BuildShiftData(context.Background(), testShiftDate, files)
	require.NoError(t, err)

	assert.Equal(t, 1, data.Aggregate.ReceiptCount)
	assert.True(t, data.Aggregate.GrossSales.Equal(decimal.NewFromInt(400)),
		"got %s", data.Aggregate.GrossSales)

	var found bool
	for _, a := range data.Annotations {
		if a.Code == model.CodeOutOfWindow && a.File == "receipts.csv" {
			found = true
		}
	}
	assert.True(t, found, "dropped rows should surface as an annotation")
}

func TestBuildShiftDataKeepsRowsWithoutTimestamps(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	data, err := eng.BuildShiftData(context.Background(), testShiftDate, testFiles())
	require.NoError(t, err)

	// Item and payment exports carry no row timestamps; nothing is dropped.
	assert.True(t, data.Aggregate.GrossSales.Equal(decimal.NewFromInt(8000)))
	for _, a := range data.Annotations {
		assert.NotEqual(t, model.CodeOutOfWindow, a.Code)
	}
}

func TestBuildShiftDataSkipsUnreadableFile(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	files := append(testFiles(), model.ExportFile{
		Filename: "mystery.csv",
		Data:     []byte("a,b\n1,2\n"),
	})

	data, err := eng.BuildShiftData(context.Background(), testShiftDate, files)
	require.NoError(t, err)

	// The unreadable file degrades to a warning; the rest still aggregates.
	assert.True(t, data.Aggregate.GrossSales.Equal(decimal.NewFromInt(8000)))

	var found bool
	for _, a := range data.Annotations {
		if a.Code == model.CodeParseWarning && a.File == "mystery.csv" {
			found = true
		}
	}
	assert.True(t, found, "skipped file should surface as an annotation")
}

func TestBuildShiftDataCanceledContext(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = eng.BuildShiftData(ctx, testShiftDate, testFiles())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadClock(t *testing.T) {
	cfg := testConfig()
	cfg.BusinessDayStartHour = 1

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestRunAndStoreRequiresStorage(t *testing.T) {
	eng, err := New(testConfig(), nil)
	require.NoError(t, err)

	_, err = eng.RunAndStore(context.Background(), RunInput{ShiftDate: testShiftDate, Files: testFiles()})
	assert.Error(t, err)

	_, err = eng.ReconcileStored(context.Background(), testShiftDate)
	assert.Error(t, err)
}
