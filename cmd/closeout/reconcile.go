package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lastorders/closeout/internal/cli"
	"github.com/lastorders/closeout/internal/sheets"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a shift against its staff form",
		Long: `Reconcile a previously ingested shift against the staff form on file and
store the resulting variance report.

A missing form does not fail the run; the report carries a note instead so
the shift still shows up for review.`,
		RunE: runReconcile,
	}

	cmd.Flags().StringP("date", "d", "", "Shift date (2006-01-02)")
	cmd.Flags().Bool("json", false, "Print the report as JSON instead of styled output")
	cmd.Flags().Bool("export-sheets", false, "Also export the report to Google Sheets")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	raw, _ := cmd.Flags().GetString("date")
	shiftDate, err := parseShiftDate(raw)
	if err != nil {
		return err
	}

	eng, store, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	report, err := eng.ReconcileStored(ctx, shiftDate)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(payload))
	} else {
		fmt.Println(cli.RenderReport(report))
	}

	if export, _ := cmd.Flags().GetBool("export-sheets"); export {
		sheetsConfig := sheets.DefaultConfig()
		if err := sheetsConfig.LoadFromEnv(); err != nil {
			return err
		}

		exporter, err := sheets.NewExporter(ctx, sheetsConfig, slog.Default())
		if err != nil {
			return err
		}
		if err := exporter.Export(ctx, report); err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		fmt.Fprintln(os.Stderr, cli.FormatSuccess("Report exported to Google Sheets"))
	}

	return nil
}
