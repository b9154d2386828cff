package sessions

import (
	"fmt"

	"streamwatch/cmd/commands/cliconfig"
	"streamwatch/internal/services"
	"streamwatch/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and compare recorded sessions",
		Long:  `List stored session summaries, import new ones, and compare two sessions.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(CompareCommand())
	cmd.AddCommand(ImportCommand())

	cmd.PersistentFlags().String("db", "", "Session database path (overrides storage.path)")

	return cmd
}

// openService opens the configured store and wraps it in a SessionService.
// The caller closes the returned store.
func openService(cmd *cobra.Command) (*services.SessionService, *store.SQLiteStore, error) {
	cfg, err := cliconfig.Load(cmd)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Storage.Path
	if f := cmd.Flag("db"); f != nil && f.Value.String() != "" {
		path = f.Value.String()
	}

	st, err := store.OpenAt(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return services.NewSessionService(st, zap.NewNop()), st, nil
}
