package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/weightbot/internal/cli"
	"github.com/Veraticus/weightbot/internal/common"
	"github.com/Veraticus/weightbot/internal/engine"
	"github.com/Veraticus/weightbot/internal/model"
	"github.com/spf13/cobra"
)

func estimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate weights for one product",
		Long: `Estimate net, shipping and volumetric weights for every option of one product.

Capacity, power, weight and box size are read from the product name, option names and
spec text; flags fill in or override what the text does not say.`,
		Example: `  weightbot estimate --name "2L 전기 주전자" --spec "박스 32x28x30cm" --option "화이트 800W" --option "블랙 1.2kg"
  weightbot estimate --name "보온병 500ml" --count 3 --allowance 2 --output thermos.xlsx`,
		RunE: runEstimate,
	}

	cmd.Flags().String("code", "", "product code used to number options")
	cmd.Flags().String("name", "", "product name (required)")
	cmd.Flags().String("spec", "", "recognized spec sheet text")
	cmd.Flags().StringArray("option", nil, "option name (repeatable)")
	cmd.Flags().Int("count", 0, "number of unnamed options when no --option is given")
	cmd.Flags().Float64("capacity", 0, "capacity in liters when the text has none")
	cmd.Flags().Float64("length", 0, "box length in cm")
	cmd.Flags().Float64("width", 0, "box width in cm")
	cmd.Flags().Float64("height", 0, "box height in cm")
	cmd.Flags().Float64("allowance", 0, "packing allowance added to each box axis in cm")
	cmd.Flags().Float64("power", 0, "rated power in kW for every option")
	cmd.Flags().String("output", "", "also write the rows to this .xlsx or .csv file")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := openEstimationStore(ctx, cfg)
	defer func() { _ = store.Close() }()

	req := engine.Request{}
	req.ProductCode, _ = flags.GetString("code")
	req.ProductName, _ = flags.GetString("name")
	req.SpecText, _ = flags.GetString("spec")
	req.OptionNames, _ = flags.GetStringArray("option")
	req.OptionCount, _ = flags.GetInt("count")
	req.ManualCapacityL, _ = flags.GetFloat64("capacity")
	req.AllowanceCm, _ = flags.GetFloat64("allowance")
	req.PowerKW, _ = flags.GetFloat64("power")
	length, _ := flags.GetFloat64("length")
	width, _ := flags.GetFloat64("width")
	height, _ := flags.GetFloat64("height")
	req.ManualDims = model.Dimensions{Length: length, Width: width, Height: height}

	out, err := newPipeline(cfg).Run(req, store.Deltas(ctx))
	if err != nil {
		if errors.Is(err, engine.ErrInvalidRequest) {
			return common.NewUserError(err.Error(), nil)
		}
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		printLine(w, cli.FormatTitle(fmt.Sprintf("%s (%s)", req.ProductName, out.Category)))
		printLine(w, fmt.Sprintf("Box %.1f x %.1f x %.1f cm, capacity %.2f L", out.Box.Length, out.Box.Width, out.Box.Height, out.CapacityL))
		printLine(w, cli.RenderResults(out.Rows))
	}

	if path, _ := flags.GetString("output"); path != "" {
		if err := writeRowsFile(path, out.Rows); err != nil {
			return err
		}
		printLine(cmd.ErrOrStderr(), cli.FormatSuccess("Wrote "+path))
	}

	return nil
}
