package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/songplays/internal/cli/output"
	"github.com/leapstack-labs/songplays/internal/config"
	"github.com/leapstack-labs/songplays/internal/state"
	"github.com/leapstack-labs/songplays/pkg/adapter"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Target   adapter.Adapter
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a connected target and a renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutTarget(cmd)

	target, err := openTarget(cmd, cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	cc.Target = target

	cleanup := func() {
		if err := target.Close(); err != nil {
			cc.Logger.Warn("failed to close target", slog.String("error", err.Error()))
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutTarget creates a CommandContext without a database connection.
// Useful for commands that only read configuration or local state.
func NewCommandContextWithoutTarget(cmd *cobra.Command) *CommandContext {
	cfg := getConfig(cmd)
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the configuration loaded by the root command, falling
// back to defaults when a command runs on its own.
func getConfig(cmd *cobra.Command) *config.Config {
	if cfg := config.GetConfig(cmd.Context()); cfg != nil {
		return cfg
	}

	target := &config.TargetConfig{Type: config.DefaultTarget}
	config.ApplyTargetDefaults(target)
	return &config.Config{
		SongData:     config.DefaultSongData,
		LogData:      config.DefaultLogData,
		Extension:    config.DefaultExtension,
		Workers:      config.DefaultWorkers,
		CacheSize:    config.DefaultCacheSize,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
		Target:       target,
	}
}

func openTarget(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	if err := config.ValidateTarget(cfg.Target); err != nil {
		return nil, err
	}
	return adapter.Open(cmd.Context(), cfg.Target.ToAdapterConfig(), logger)
}

// openHistory opens the run history store at cfg.StatePath.
func openHistory(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store %s: %w", cfg.StatePath, err)
	}
	return store, nil
}
