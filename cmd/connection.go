package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newConnectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect [url]",
		Short: "Connect to an Arthas agent and remember it",
		Long:  "Runs a health check against the agent's HTTP API and stores the connection for later commands. The url defaults to arthas.url (ARTHAS_URL).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := app.config.AgentURL
			if len(args) == 1 {
				url = args[0]
			}

			return writeResponse(cmd, app, app.client.Connect(cmd.Context(), url))
		},
	}
}

func newDisconnectCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the stored agent connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeResponse(cmd, app, app.client.Disconnect(cmd.Context()))
		},
	}
}

func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored agent connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			connection, err := app.client.ConnectionInfo(cmd.Context())
			if err != nil {
				return err
			}

			return writeResponse(cmd, app, connectionStatus(connection).WithTimestamp(app.now()))
		},
	}
}

func connectionStatus(connection domain.Connection) domain.Response {
	if !connection.Connected {
		return domain.Warning("Not connected to Arthas", map[string]any{"connected": false})
	}

	return domain.Success(fmt.Sprintf("Connected to Arthas WebConsole: %s", connection.Address()), map[string]any{
		"connected":    true,
		"url":          connection.BaseURL,
		"host":         connection.Host,
		"port":         connection.Port,
		"connected_at": connection.ConnectedAt.Format(time.RFC3339),
	})
}
