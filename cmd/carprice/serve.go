package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/carprice/internal/api"
	"github.com/Veraticus/carprice/internal/certs"
	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/config"
	"github.com/Veraticus/carprice/internal/registry"
	"github.com/Veraticus/carprice/internal/training"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve price predictions over HTTP",
		Long: `Start the pricing API.

In the local environment the model file at model.path is served and reloaded
whenever it is replaced. In the cloud environment the newest model published
under model.prefix is downloaded and swapped in as new ones appear.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "listen host (default from server.host)")
	cmd.Flags().Int("port", 0, "listen port (default from server.port)")
	cmd.Flags().String("api-key", "", "require this value in the X-API-Key header")
	cmd.Flags().String("tls-dir", "", "serve HTTPS with a self-signed certificate kept in this directory")

	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.api_key", cmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag("server.tls_dir", cmd.Flags().Lookup("tls-dir"))

	return cmd
}

func serverConfig(cfg *config.Config) api.Config {
	return api.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		APIKey:          cfg.Server.APIKey,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	}
}

// serverTLS issues or reuses the certificate in server.tls_dir. A specific listen host
// is added to the certificate's names.
func serverTLS(cfg *config.Config) (*tls.Config, error) {
	var hosts []string
	if h := cfg.Server.Host; h != "" && h != "0.0.0.0" && h != "::" {
		hosts = append(hosts, h)
	}
	tlsConfig, err := certs.NewFileManager(cfg.Server.TLSDir, hosts...).TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare TLS certificate: %w", err)
	}
	return tlsConfig, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	store, err := openObjectStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open object store: %w", err)
	}

	models := registry.New(modelLoader(cfg, store), registry.WithLogger(slog.Default()))
	if _, err := models.ReloadIfStale(ctx); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("failed to load model: %w", err)
		}
		slog.Warn("No model published yet; /pricing fails until one is", "error", err)
	}

	jobs := training.New(store, pipeline, jobsConfig(cfg), training.WithLogger(slog.Default()))

	opts := []api.Option{api.WithJobs(jobs), api.WithLogger(slog.Default())}
	if cfg.Server.TLSDir != "" {
		tlsConfig, err := serverTLS(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, api.WithTLS(tlsConfig))
	}

	server := api.NewServer(pipeline, models, serverConfig(cfg), opts...)

	slog.Info("Starting pricing API",
		"environment", cfg.Environment,
		"addr", serverConfig(cfg).Addr(),
		"storage", cfg.Storage.Backend)
	return server.Run(ctx)
}
