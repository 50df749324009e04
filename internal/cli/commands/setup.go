// Package commands implements the vitrine subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vitrine-labs/vitrine/internal/cli/config"
	"github.com/vitrine-labs/vitrine/internal/cli/output"
	"github.com/vitrine-labs/vitrine/internal/dbt"
	"github.com/vitrine-labs/vitrine/internal/kaggle"
	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/state"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Driver   *pipeline.Driver
	History  state.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the pipeline driver wired
// up. Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	driver, history, err := createDriver(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = history.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Driver:   driver,
		History:  history,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutDriver creates a CommandContext without the
// pipeline driver. Useful for commands that don't touch the pipeline.
func NewCommandContextWithoutDriver(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults.
	return &config.Config{
		DatabasePath: getEnvOrDefault("VITRINE_DATABASE", config.DefaultDatabasePath),
		InputDir:     getEnvOrDefault("VITRINE_INPUT_DIR", config.DefaultInputDir),
		StatePath:    getEnvOrDefault("VITRINE_STATE_PATH", config.DefaultStateFile),
		Dataset:      getEnvOrDefault("VITRINE_DATASET", config.DefaultDataset),
		Verbose:      os.Getenv("VITRINE_VERBOSE") == "true",
		OutputFormat: os.Getenv("VITRINE_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// newWarehouseStore builds the DuckDB store from configuration.
func newWarehouseStore(cfg *config.Config, logger *slog.Logger) (warehouse.Store, error) {
	params, err := warehouse.ParseParams(cfg.Warehouse.Params)
	if err != nil {
		return nil, err
	}
	return warehouse.NewDuckDB(cfg.DatabasePath, *params, logger), nil
}

// createDriver assembles the pipeline driver and its run-history store.
func createDriver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Driver, state.Store, error) {
	store, err := newWarehouseStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	history, err := state.NewSQLiteStore(cfg.StatePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run history: %w", err)
	}

	downloader := kaggle.NewClient(kaggle.ClientConfig{
		Dataset: cfg.Dataset,
		Credentials: kaggle.ResolveOptions{
			Token:    cfg.Kaggle.Token,
			Username: cfg.Kaggle.Username,
			Key:      cfg.Kaggle.Key,
		},
		Logger: logger,
	})

	runner := &dbt.ExecRunner{
		Bin:         cfg.Dbt.Bin,
		ProfilesDir: cfg.Dbt.ProfilesDir,
		ProjectDir:  cfg.Dbt.ProjectDir,
		Timeout:     cfg.Dbt.Timeout,
		Log:         logger,
	}

	driver, err := pipeline.New(ctx, pipeline.Config{
		Warehouse:  store,
		Downloader: downloader,
		Runner:     runner,
		History:    history,
		InputDir:   cfg.InputDir,
		Logger:     logger,
	})
	if err != nil {
		_ = history.Close()
		return nil, nil, err
	}

	return driver, history, nil
}
