package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
)

func prepareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare <input.csv>",
		Short: "Prepare a local listing export",
		Long: `Run the preparation pipeline over a local CSV file and write the prepared
table as CSV.

Training mode removes outliers and keeps the price column; inference mode
expects exactly one row and validates it against the schema.`,
		Args: cobra.ExactArgs(1),
		RunE: runPrepare,
	}

	cmd.Flags().String("mode", string(model.ModeTraining), "preparation mode (training, inference)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	return cmd
}

func runPrepare(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	output, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output) //nolint:gosec // path is provided by the operator
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	ds, err := prepareFile(cmd.Context(), pipeline, args[0], model.Mode(mode), out)
	if err != nil {
		return err
	}

	slog.Info("Prepared table", "input", args[0], "mode", mode, "rows", ds.Len(), "columns", len(ds.Columns))
	return nil
}

// prepareFile prepares a local CSV file and writes the result to out.
func prepareFile(ctx context.Context, pipeline *dataset.Pipeline, path string, mode model.Mode, out io.Writer) (*model.Dataset, error) {
	in, err := dataset.NewInput(ctx, mode, dataset.Path(path, dataset.FileReader{}))
	if err != nil {
		return nil, err
	}

	ds, err := pipeline.Run(in)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteCSV(out, ds); err != nil {
		return nil, fmt.Errorf("failed to write prepared table: %w", err)
	}
	return ds, nil
}
