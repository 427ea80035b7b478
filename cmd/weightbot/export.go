package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/config"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/Veraticus/weightbot/internal/service"
	"github.com/Veraticus/weightbot/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export estimates to external destinations",
	}

	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets <products.csv|products.xlsx>",
		Short: "Estimate a product file and write the rows to Google Sheets",
		Long: `Estimate every product in the file and replace the results tab of the configured
spreadsheet with one row per option. A new spreadsheet is created when none is
configured; its ID is printed so it can be added to the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: runExportSheets,
	}

	cmd.Flags().Int("workers", engine.DefaultBatchOptions().ParallelWorkers, "parallel workers")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	cmd.Flags().String("spreadsheet-id", "", "target spreadsheet (overrides config)")

	return cmd
}

func runExportSheets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return common.NewUserError("Google Sheets is not configured; run 'weightbot auth sheets' or set sheets.service_account_path", err)
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		sheetsConfig.SpreadsheetID = id
	}

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	summary, err := estimateFile(cmd, args[0])
	if err != nil {
		return err
	}

	if err := exportRows(cmd, writer, collectRows(summary)); err != nil {
		return err
	}

	printBatchSummary(cmd, summary, "spreadsheet "+writer.SpreadsheetID())
	return nil
}

func exportRows(cmd *cobra.Command, writer service.ResultWriter, rows []model.ResultRow) error {
	if err := writer.WriteResults(cmd.Context(), rows); err != nil {
		return fmt.Errorf("failed to export to sheets: %w", err)
	}
	printLine(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d rows", len(rows))))
	return nil
}
