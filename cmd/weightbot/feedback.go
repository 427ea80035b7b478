package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/feedback"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record and inspect measured weights",
		Long: `Measured weights correct later estimates: each category's estimates move by the
average difference between measured and predicted weights, bounded to ±2 kg.`,
	}

	cmd.AddCommand(feedbackRecordCmd())
	cmd.AddCommand(feedbackListCmd())
	cmd.AddCommand(feedbackDeltasCmd())
	cmd.AddCommand(feedbackHistoryCmd())
	cmd.AddCommand(feedbackImportCmd())
	cmd.AddCommand(feedbackResetCmd())

	return cmd
}

func feedbackRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <option-key>",
		Short: "Record the measured weight of an option",
		Example: `  weightbot feedback record A240812-01 --predicted 1.68 --actual 1.81 --category kettle
  weightbot feedback record A240812-02 --predicted 1.2 --actual 1.15 --name "2L 전기 주전자"`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedbackRecord,
	}

	cmd.Flags().Float64("predicted", 0, "predicted net weight in kg")
	cmd.Flags().Float64("actual", 0, "measured net weight in kg")
	cmd.Flags().String("category", "", "product category")
	cmd.Flags().String("name", "", "product name to classify when --category is not given")
	_ = cmd.MarkFlagRequired("predicted")
	_ = cmd.MarkFlagRequired("actual")

	return cmd
}

func runFeedbackRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	predicted, _ := cmd.Flags().GetFloat64("predicted")
	actual, _ := cmd.Flags().GetFloat64("actual")
	categoryName, _ := cmd.Flags().GetString("category")
	productName, _ := cmd.Flags().GetString("name")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var category model.Category
	switch {
	case categoryName != "":
		var ok bool
		if category, ok = model.ParseCategory(categoryName); !ok {
			return common.NewUserError(fmt.Sprintf("unknown category %q", categoryName), nil)
		}
	case productName != "":
		category = newPipeline(cfg).Classifier().Classify(productName)
	default:
		return common.NewUserError("either --category or --name is required", nil)
	}

	store, err := initFeedbackStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open feedback store: %w", err)
	}
	defer func() { _ = store.Close() }()

	entry, err := store.RecordFeedback(ctx, args[0], predicted, actual, category)
	if err != nil {
		return err
	}

	printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s (%s): delta %+.3f kg",
		entry.OptionKey, entry.Category, entry.Delta)))
	return nil
}

func feedbackListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded feedback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			category, _ := cmd.Flags().GetString("category")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openEstimationStore(ctx, cfg)
			defer func() { _ = store.Close() }()

			entries := store.LoadAll(ctx).Sorted()
			if category != "" {
				filtered := entries[:0]
				for _, e := range entries {
					if string(e.Category) == category {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}

			printLine(cmd.OutOrStdout(), cli.RenderFeedback(entries))
			return nil
		},
	}

	cmd.Flags().String("category", "", "only show this category")
	return cmd
}

func feedbackDeltasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deltas",
		Short: "Show the correction applied to each category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openEstimationStore(ctx, cfg)
			defer func() { _ = store.Close() }()

			printLine(cmd.OutOrStdout(), cli.RenderDeltas(store.Deltas(ctx)))
			return nil
		},
	}
}

func feedbackHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <option-key>",
		Short: "Show every measurement recorded for an option",
		Long:  `History is kept by the sqlite and postgres backends only.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, err := openFeedbackBackend(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open feedback store: %w", err)
			}
			defer func() { _ = backend.Close() }()

			reader, ok := backend.(historyReader)
			if !ok {
				return common.NewUserError(fmt.Sprintf("the %s backend does not keep history", cfg.Feedback.Backend), nil)
			}
			entries, err := reader.GetFeedbackHistory(ctx, args[0])
			if err != nil {
				return err
			}

			printLine(cmd.OutOrStdout(), cli.RenderFeedback(entries))
			return nil
		},
	}
}

func feedbackImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <feedback.json>",
		Short: "Merge a feedback JSON file into the configured store",
		Long: `Import reads a feedback file in the JSON format (including files written by
earlier versions, whose timestamps are Unix seconds) and merges its entries into the
configured store. Entries for the same option key replace the stored ones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			source, err := feedback.NewJSONFileBackend(args[0])
			if err != nil {
				return err
			}
			imported, err := source.LoadFeedback(ctx)
			if err != nil {
				return common.NewUserError("could not read "+args[0], err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initFeedbackStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open feedback store: %w", err)
			}
			defer func() { _ = store.Close() }()

			err = store.Update(ctx, func(set *model.FeedbackSet) error {
				for _, entry := range imported.Sorted() {
					*set = feedback.Record(*set, entry)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to import feedback: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d entries from %s", imported.Len(), args[0])))
			return nil
		},
	}
}

func feedbackResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all recorded feedback",
		Long: `Reset deletes every feedback entry so estimates return to the base formulas.
The database backends keep their history table for auditing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initFeedbackStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open feedback store: %w", err)
			}
			defer func() { _ = store.Close() }()

			count := store.LoadAll(ctx).Len()
			if count == 0 {
				printLine(cmd.OutOrStdout(), "No feedback found. Nothing to reset.")
				return nil
			}

			if !force {
				printLine(cmd.OutOrStdout(), fmt.Sprintf("This will delete %d feedback entries.", count))
				if _, err := fmt.Fprint(cmd.OutOrStdout(), "\nAre you sure you want to continue? [y/N]: "); err != nil {
					return err
				}
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if r := strings.ToLower(strings.TrimSpace(response)); r != "y" && r != "yes" {
					printLine(cmd.OutOrStdout(), "Reset canceled.")
					return nil
				}
			}

			if err := store.Reset(ctx); err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d feedback entries", count)))
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}
