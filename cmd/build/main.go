package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pose-records/cmd"
	"pose-records/internal/config"
	"pose-records/internal/database"
	"pose-records/internal/pipeline"
	"pose-records/internal/storage"
)

func createProvider(ctx context.Context, cfg config.S3Config) (storage.Provider, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	provider, err := storage.NewS3Provider(ctx, storage.S3ProviderConfig{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 provider: %w", err)
	}
	return provider, nil
}

// run builds both splits. Everything it opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config) (pipeline.Summary, error) {
	provider, err := createProvider(ctx, cfg.S3)
	if err != nil {
		return pipeline.Summary{}, err
	}
	deps := pipeline.Deps{Provider: provider}

	if cfg.CatalogPath != "" {
		catalog, err := database.OpenCatalog(cfg.CatalogPath)
		if err != nil {
			return pipeline.Summary{}, fmt.Errorf("failed to open catalog: %w", err)
		}
		defer catalog.Close()
		deps.Catalog = catalog
	}

	summary, err := pipeline.New(cfg, deps).Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to build records: %w", err)
	}
	return summary, nil
}

func main() {
	flags := cmd.ParseFlags()
	cmd.LoadEnvFile(flags.EnvFile)

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCloser, err := cmd.SetupLogging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	summary, err := run(ctx, cfg)
	stop()

	if err != nil {
		slog.Error("build failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
	logCloser.Close()

	fmt.Printf("Successfully wrote %d annotations to TF Records.\n", summary.TotalAnnotations)
}
