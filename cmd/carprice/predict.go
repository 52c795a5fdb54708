package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carprice/internal/api"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/pricing"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the price of one car",
		Long: `Predict the price of one car described by a JSON object, using the same
field names as the /pricing endpoint.

  carprice predict --input car.json
  echo '{"Manufacturer": "Toyota", ...}' | carprice predict`,
		Args: cobra.NoArgs,
		RunE: runPredict,
	}

	cmd.Flags().StringP("input", "i", "-", "JSON file describing the car (- for stdin)")
	cmd.Flags().String("model", "", "model file (default from model.path)")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	modelPath, _ := cmd.Flags().GetString("model")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if modelPath == "" {
		modelPath = cfg.Model.Path
	}

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	m, err := pricing.LoadFile(modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		f, err := os.Open(input) //nolint:gosec // path is provided by the operator
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", input, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	price, err := predictPrice(r, pipeline, m)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), price)
	return nil
}

// predictPrice decodes one car and prices it.
func predictPrice(r io.Reader, pipeline *dataset.Pipeline, m *pricing.Model) (int64, error) {
	rec, err := api.DecodeCar(r)
	if err != nil {
		return 0, err
	}

	ds, err := pipeline.Prepare([]model.RawRecord{rec}, model.ModeInference)
	if err != nil {
		return 0, err
	}

	prices, err := m.PredictPrices(ds)
	if err != nil {
		return 0, err
	}
	return prices[0], nil
}
