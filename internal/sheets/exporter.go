package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/model"
)

// Exporter implements the service.ReportExporter interface for Google
// Sheets. Each shift gets its own tab named after the shift date; exporting
// the same shift again replaces the tab's contents.
type Exporter struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewExporter creates a new Google Sheets report exporter.
func NewExporter(ctx context.Context, config Config, logger *slog.Logger) (*Exporter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Exporter{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Export implements the service.ReportExporter interface.
func (e *Exporter) Export(ctx context.Context, report *model.ShiftVarianceReport) error {
	tab := report.ShiftDate.Format("2006-01-02")

	e.logger.Info("exporting variance report",
		"shift_date", tab,
		"sales_flags", len(report.Sales),
		"stock_lines", len(report.Stock))

	spreadsheetID, err := e.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if err := e.ensureTab(ctx, spreadsheetID, tab); err != nil {
		return fmt.Errorf("failed to prepare tab %s: %w", tab, err)
	}

	values := prepareReportData(report)

	retryOpts := common.RetryOptions{
		MaxAttempts:  e.config.RetryAttempts,
		InitialDelay: e.config.RetryDelay,
	}

	err = common.WithRetry(ctx, func() error {
		return e.writeTab(ctx, spreadsheetID, tab, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	e.logger.Info("export completed",
		"spreadsheet_id", spreadsheetID,
		"tab", tab,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets an existing spreadsheet or creates a new one.
func (e *Exporter) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if e.config.SpreadsheetID != "" {
		_, err := e.service.Spreadsheets.Get(e.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", e.config.SpreadsheetID, err)
		}
		return e.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    e.config.SpreadsheetName,
			TimeZone: e.config.TimeZone,
		},
	}

	created, err := e.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	e.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// ensureTab creates the shift's tab if it doesn't exist and clears it if it
// does.
func (e *Exporter) ensureTab(ctx context.Context, spreadsheetID, tab string) error {
	spreadsheet, err := e.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to read spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == tab {
			_, err := e.service.Spreadsheets.Values.Clear(spreadsheetID,
				fmt.Sprintf("'%s'!A:Z", tab), &sheets.ClearValuesRequest{}).Context(ctx).Do()
			return err
		}
	}

	_, err = e.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		}},
	}).Context(ctx).Do()
	return err
}

// writeTab writes the prepared rows starting at A1.
func (e *Exporter) writeTab(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	_, err := e.service.Spreadsheets.Values.Update(spreadsheetID,
		fmt.Sprintf("'%s'!A1", tab),
		&sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}

// prepareReportData flattens a report into spreadsheet rows.
func prepareReportData(report *model.ShiftVarianceReport) [][]any {
	status := "OK"
	if report.OverallFlagged {
		status = "FLAGGED"
	}

	values := make([][]any, 0,
		10+len(report.Sales)+len(report.Stock)+len(report.Annotations))

	values = append(values,
		[]any{"Shift Variance Report", report.ShiftDate.Format("Jan 2, 2006")},
		[]any{"Status", status},
		[]any{},
		[]any{"Sales Reconciliation"},
		[]any{"Field", "POS", "Staff", "Delta", "Severity"},
	)
	for _, flag := range report.Sales {
		values = append(values, []any{
			flag.Field,
			flag.PosValue.StringFixed(2),
			flag.StaffValue.StringFixed(2),
			flag.Delta.StringFixed(2),
			string(flag.Severity),
		})
	}

	values = append(values,
		[]any{},
		[]any{"Stock Variance"},
		[]any{"Ingredient", "Unit", "Expected", "Actual", "Variance", "Flagged"},
	)
	for _, line := range report.Stock {
		flagged := ""
		if line.Flagged {
			flagged = "YES"
		}
		values = append(values, []any{
			line.Ingredient,
			line.Unit,
			line.Expected.StringFixed(2),
			line.Actual.StringFixed(2),
			line.Variance.StringFixed(2),
			flagged,
		})
	}

	if len(report.Annotations) > 0 {
		values = append(values,
			[]any{},
			[]any{"Annotations"},
			[]any{"Code", "Severity", "Message", "File"},
		)
		for _, a := range report.Annotations {
			values = append(values, []any{
				string(a.Code),
				string(a.Severity),
				a.Message,
				a.File,
			})
		}
	}

	return values
}
