package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carprice/internal/cli"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/outlier"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <input.csv>",
		Short: "Summarize the numeric features of a table",
		Long: `Print mean, standard deviation, quartiles and IQR of every numeric feature.

Raw exports are prepared in training mode first, so the numbers describe what
the model is trained on. Use --prepared for tables that are already prepared.`,
		Args: cobra.ExactArgs(1),
		RunE: runStats,
	}

	cmd.Flags().Bool("prepared", false, "the input is already prepared")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	prepared, _ := cmd.Flags().GetBool("prepared")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	rows, err := dataset.FileReader{}.ReadTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var ds *model.Dataset
	if prepared {
		ds, err = pipeline.Restore(rows)
	} else {
		ds, err = pipeline.Prepare(rows, model.ModeTraining)
	}
	if err != nil {
		return err
	}

	table, err := featureStats(ds)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s: %d rows", filepath.Base(args[0]), ds.Len())))
	fmt.Fprintln(out, cli.RenderTable(cli.StatsHeaders, table))
	return nil
}

// featureStats summarizes every numerical column of ds, in column order.
func featureStats(ds *model.Dataset) ([][]string, error) {
	var rows [][]string
	for i, col := range ds.Columns {
		if ds.Kinds[i] != model.KindNumerical {
			continue
		}
		values, err := ds.Numbers(col)
		if err != nil {
			return nil, err
		}
		rows = append(rows, cli.StatsRow(col, outlier.Describe(values)))
	}
	return rows, nil
}
