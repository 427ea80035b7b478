package main

import (
	"github.com/Veraticus/weightbot/internal/tui"
	"github.com/spf13/cobra"
)

func formCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Estimate products in an interactive terminal form",
		Long: `Open a terminal form for one product at a time. Enter moves to the next field
and submits on the last one; ctrl+s submits from anywhere. From the results press f to
record a measured weight.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := openEstimationStore(ctx, cfg)
			defer func() { _ = store.Close() }()

			return tui.Run(ctx, tui.Config{
				Pipeline: newPipeline(cfg),
				Store:    store,
			})
		},
	}
}
