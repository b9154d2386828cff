// Package cliconfig loads configuration for CLI commands.
package cliconfig

import (
	"fmt"

	"streamwatch/internal/config"
	"streamwatch/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Load reads the config named by the inherited --config flag, if any.
func Load(cmd *cobra.Command) (*config.Config, error) {
	path := ""
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Logger builds the logger described by cfg.
func Logger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.Level, cfg.Log.Development)
}
