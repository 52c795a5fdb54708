package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/carprice/internal/cli"
	"github.com/Veraticus/carprice/internal/config"
	"github.com/Veraticus/carprice/internal/objectstore"
	"github.com/Veraticus/carprice/internal/service"
	"github.com/Veraticus/carprice/internal/training"
)

// jobEnv holds what the batch job commands share.
type jobEnv struct {
	cfg   *config.Config
	store objectstore.Store
	runs  service.RunStore
}

func (e *jobEnv) Close() {
	if e.runs != nil {
		_ = e.runs.Close()
	}
}

func (e *jobEnv) jobs(opts ...training.Option) (*training.Jobs, error) {
	pipeline, err := newPipeline(e.cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]training.Option{training.WithRunStore(e.runs), training.WithLogger(slog.Default())}, opts...)
	return training.New(e.store, pipeline, jobsConfig(e.cfg), opts...), nil
}

func openJobEnv(ctx context.Context) (*jobEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}

	runs, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &jobEnv{cfg: cfg, store: store, runs: runs}, nil
}

// runWithProgress runs a job behind a step progress bar. An interrupt cancels the job
// context.
func runWithProgress(cmd *cobra.Command, title string, steps []string, job func(ctx context.Context, progress service.ProgressFunc) error) error {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), title)
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	bar := cli.NewStepProgress(cmd.ErrOrStderr(), title, steps)
	if err := job(ctx, bar.Func()); err != nil {
		return err
	}
	bar.Finish()
	return nil
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Prepare the newest raw dataset for training",
		Long: `Find the newest table under training.raw_prefix, prepare it in training mode
and store the result under training.processed_prefix.`,
		Args: cobra.NoArgs,
		RunE: runProcess,
	}
}

func runProcess(cmd *cobra.Command, _ []string) error {
	env, err := openJobEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	return runWithProgress(cmd, "Processing", training.ProcessSteps, func(ctx context.Context, progress service.ProgressFunc) error {
		jobs, err := env.jobs(training.WithProgress(progress))
		if err != nil {
			return err
		}

		version, err := jobs.ProcessLatest(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
			"Prepared %s: %d of %d rows kept (%d outliers dropped)",
			version.ProcessedKey, version.RowsOut, version.RowsIn, version.Dropped())))
		return nil
	})
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and publish a model on the newest prepared dataset",
		Long: `Fit a price model on the newest prepared table, evaluate it on a held-out split
and publish it with its version document.

With --install the published model is also copied to model.path, where the
local environment serves it from.`,
		Args: cobra.NoArgs,
		RunE: runTrain,
	}

	cmd.Flags().Bool("install", false, "copy the trained model to model.path")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	install, _ := cmd.Flags().GetBool("install")

	env, err := openJobEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	return runWithProgress(cmd, "Training", training.TrainSteps, func(ctx context.Context, progress service.ProgressFunc) error {
		jobs, err := env.jobs(training.WithProgress(progress))
		if err != nil {
			return err
		}

		run, err := jobs.TrainLatest(ctx)
		if err != nil {
			return err
		}

		if install {
			if err := env.store.Download(ctx, run.ModelKey, env.cfg.Model.Path); err != nil {
				return fmt.Errorf("failed to install model: %w", err)
			}
			slog.Info("Installed model", "path", env.cfg.Model.Path, "version", run.Version)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.RenderMetrics("Model "+run.Version, run.Metrics))
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Published %s (%d training rows, %d test rows)",
			run.ModelKey, run.TrainRows, run.TestRows)))
		return nil
	})
}

func jobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job",
		Short: "Snapshot the newest raw dataset to trigger retraining",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openJobEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			jobs, err := env.jobs()
			if err != nil {
				return err
			}
			key, err := jobs.CreateJob(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Created training job "+key))
			return nil
		},
	}
}
