package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carprice/internal/cli"
	"github.com/Veraticus/carprice/internal/model"
)

const runTimeLayout = "2006-01-02 15:04"

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List training runs and prepared datasets",
		Args:  cobra.NoArgs,
		RunE:  runRuns,
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of entries")
	cmd.Flags().Bool("datasets", false, "list prepared dataset versions instead of training runs")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one training run",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowRun,
	})

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	datasets, _ := cmd.Flags().GetBool("datasets")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runs, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = runs.Close() }()

	out := cmd.OutOrStdout()
	if datasets {
		versions, err := runs.ListDatasetVersions(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list dataset versions: %w", err)
		}
		if len(versions) == 0 {
			fmt.Fprintln(out, cli.FormatInfo("No datasets prepared yet. Run: carprice process"))
			return nil
		}
		fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Created", "Source", "Prepared", "Rows in", "Rows out"}, datasetRows(versions)))
		return nil
	}

	list, err := runs.ListTrainingRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list training runs: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No models trained yet. Run: carprice train"))
		return nil
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Version", "Dataset", "MAE", "R2"}, runRows(list)))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runs, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = runs.Close() }()

	run, err := runs.GetTrainingRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get training run %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderMetrics("Model "+run.Version, run.Metrics))
	fmt.Fprintf(out, "Dataset: %s\nModel:   %s\nRows:    %d train, %d test\nCreated: %s\n",
		run.DatasetKey, run.ModelKey, run.TrainRows, run.TestRows, run.CreatedAt.Format(runTimeLayout))
	return nil
}

func runRows(runs []model.TrainingRun) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Version,
			r.DatasetKey,
			strconv.FormatFloat(r.Metrics.MAE, 'f', 2, 64),
			strconv.FormatFloat(r.Metrics.R2, 'f', 4, 64),
		}
	}
	return rows
}

func datasetRows(versions []model.DatasetVersion) [][]string {
	rows := make([][]string, len(versions))
	for i, v := range versions {
		rows[i] = []string{
			strconv.FormatInt(v.ID, 10),
			v.CreatedAt.Format(runTimeLayout),
			v.SourceKey,
			v.ProcessedKey,
			strconv.Itoa(v.RowsIn),
			strconv.Itoa(v.RowsOut),
		}
	}
	return rows
}
