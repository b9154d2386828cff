package token

import (
	"fmt"
	"net/url"

	"streamwatch/cmd/commands/cliconfig"
	"streamwatch/internal/middleware"
	"streamwatch/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token for the live WebSocket stream",
		Long: `Generate a signed token that dashboards pass to /ws?token=... to receive
live snapshots. Tokens are only issued from the command line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverName, _ := cmd.Flags().GetString("server-name")
			if !middleware.NewInputValidator().ValidateServerName(serverName) {
				return fmt.Errorf("invalid server name %q: use letters, digits, '-', '_' or '.'", serverName)
			}

			cfg, err := cliconfig.Load(cmd)
			if err != nil {
				return err
			}

			auth, err := services.NewAuthService(cfg.Auth.Secret, cfg.Auth.TokenExpiry, zap.NewNop())
			if err != nil {
				return err
			}

			token, expiresAt, err := auth.GenerateToken(serverName)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token:   %s\n", token)
			fmt.Fprintf(out, "Expires: %s\n", expiresAt.UTC().Format("2006-01-02 15:04:05 UTC"))
			fmt.Fprintf(out, "URL:     ws://%s/ws?token=%s\n", cfg.Server.Addr, url.QueryEscape(token))
			return nil
		},
	}

	cmd.Flags().String("server-name", "streamwatch-agent", "Name embedded in the token")

	return cmd
}
