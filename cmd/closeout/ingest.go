package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lastorders/closeout/internal/cli"
	"github.com/lastorders/closeout/internal/engine"
	"github.com/lastorders/closeout/internal/model"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [files or globs...]",
		Short: "Ingest the night's POS export files",
		Long: `Canonicalize and aggregate one shift's POS export files.

Each file's layout (item sales, payment types, receipts, modifiers, summary)
is inferred from its filename and header row. The aggregated shift data is
stored by shift date; re-ingesting the same shift replaces the previous data.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringP("date", "d", "", "Shift date (2006-01-02, default: current business day)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, store, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	shiftDate, err := resolveShiftDateFlag(cmd, eng)
	if err != nil {
		return err
	}

	paths, err := expandGlobs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched")
	}

	slog.Info("Ingesting POS exports",
		"shift_date", shiftDate.Format("2006-01-02"),
		"files", len(paths))

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Reading export files..."),
	)

	files := make([]model.ExportFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, model.ExportFile{
			Filename: filepath.Base(path),
			Data:     data,
		})
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}
	fmt.Fprintln(os.Stderr)

	data, err := eng.BuildShiftData(ctx, shiftDate, files)
	if err != nil {
		return err
	}
	if err := store.SaveShiftData(ctx, data); err != nil {
		return fmt.Errorf("failed to save shift data: %w", err)
	}

	fmt.Println(cli.RenderShiftSummary(data))

	warned := 0
	for _, a := range data.Annotations {
		if a.Severity == model.SeverityWarn {
			warned++
		}
	}
	if warned > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d annotation(s) recorded; see the reconcile report", warned)))
	}

	return nil
}

// resolveShiftDateFlag parses --date, or dates the run by the current
// business day when the flag is absent.
func resolveShiftDateFlag(cmd *cobra.Command, eng *engine.Engine) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw != "" {
		return parseShiftDate(raw)
	}
	return eng.Clock().Resolve(time.Now()), nil
}

// expandGlobs expands glob arguments into a deduplicated, sorted path list.
func expandGlobs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if matches == nil {
			// Not a pattern; treat as a literal path so missing files fail
			// loudly at read time.
			matches = []string{arg}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
