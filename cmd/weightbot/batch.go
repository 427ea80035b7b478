package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/config"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/report"
	"github.com/Veraticus/weightbot/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <products.csv|products.xlsx>",
		Short: "Estimate every product in a spreadsheet",
		Long: `Estimate every product listed in a CSV or XLSX file and write one row per option.

Input columns: product_code, product_name (required), spec_text, option_names
("|" separated), option_count, capacity_l, box_l, box_w, box_h, allowance_cm, power_kw.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().StringP("output", "o", "weightbot_results.xlsx", "output file (.xlsx or .csv)")
	cmd.Flags().Int("workers", engine.DefaultBatchOptions().ParallelWorkers, "parallel workers")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	summary, err := estimateFile(cmd, args[0])
	if err != nil {
		return err
	}

	rows := collectRows(summary)
	if err := writeRowsFile(output, rows); err != nil {
		return err
	}

	printBatchSummary(cmd, summary, output)
	return nil
}

// estimateFile reads products from path and runs them through the pipeline with a
// progress bar and interrupt handling.
func estimateFile(cmd *cobra.Command, path string) (*engine.BatchSummary, error) {
	products, err := report.ReadProducts(path)
	if err != nil {
		return nil, common.NewUserError("could not read "+path, err)
	}
	if len(products) == 0 {
		return nil, common.NewUserError("no products found in "+path, nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	store := openEstimationStore(ctx, cfg)
	defer func() { _ = store.Close() }()

	reqs := make([]engine.Request, len(products))
	for i, p := range products {
		reqs[i] = engine.RequestFromProduct(p)
	}

	runID := uuid.NewString()
	slog.Info("starting batch", "run_id", runID, "input", path, "products", len(reqs))

	return runRequests(ctx, cmd, cfg, reqs, store.Deltas(ctx), runID)
}

func runRequests(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reqs []engine.Request, deltas service.DeltaSource, runID string) (*engine.BatchSummary, error) {
	opts := engine.DefaultBatchOptions()
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		opts.ParallelWorkers = workers
	}

	var progress *cli.BatchProgress
	if quiet, _ := cmd.Flags().GetBool("no-progress"); !quiet {
		progress = cli.NewBatchProgress(cmd.ErrOrStderr(), len(reqs))
		opts.OnProgress = progress.Update
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, cancel := interrupts.HandleInterrupts(ctx, func() (int, int) {
		if progress == nil {
			return 0, len(reqs)
		}
		return progress.Done(), len(reqs)
	})
	defer cancel()

	summary := newPipeline(cfg).RunBatch(ctx, reqs, deltas, opts)
	if interrupts.WasInterrupted() || ctx.Err() != nil {
		return nil, common.NewUserError("batch interrupted", ctx.Err())
	}

	for _, r := range summary.Results {
		if r.Error != nil {
			slog.Warn("product failed",
				"run_id", runID,
				"product_index", r.Index,
				"product", r.Request.ProductName,
				"error", r.Error)
		}
	}
	slog.Info("batch completed",
		"run_id", runID,
		"products", summary.TotalProducts,
		"options", summary.TotalOptions,
		"failed", summary.FailedCount,
		"duration", summary.ProcessingTime.Round(time.Millisecond))

	return summary, nil
}

func printBatchSummary(cmd *cobra.Command, summary *engine.BatchSummary, destination string) {
	content := fmt.Sprintf("  • Products: %d\n", summary.TotalProducts) +
		fmt.Sprintf("  • Options: %d\n", summary.TotalOptions) +
		fmt.Sprintf("  • Failed: %d\n", summary.FailedCount) +
		fmt.Sprintf("  • Time taken: %s\n", summary.ProcessingTime.Round(time.Millisecond)) +
		fmt.Sprintf("  • Output: %s", destination)

	printLine(cmd.OutOrStdout(), cli.RenderBox(cli.BoxIcon+" Batch Complete", content))
}
