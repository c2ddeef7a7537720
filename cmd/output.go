package cmd

import (
	"encoding/json"
	"fmt"

	responseadapter "github.com/bnema/arthas-cli/internal/adapters/render/response"
	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/spf13/cobra"
)

// writeResponse prints resp and turns an error status into a command error.
func writeResponse(cmd *cobra.Command, app *app, resp domain.Response) error {
	if app.output.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return resp.Err()
	}

	rendered, err := app.renderer(resp, responseadapter.RenderOptions{
		Now:        app.now(),
		MaxRecords: app.output.maxRecords,
	})
	if err != nil {
		return fmt.Errorf("render response: %w", err)
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
		return err
	}

	return resp.Err()
}

// runLong runs a slow call behind a spinner unless JSON output was requested.
func runLong(cmd *cobra.Command, app *app, label string, call func(*cobra.Command) domain.Response) error {
	if app.output.asJSON {
		return writeResponse(cmd, app, call(cmd))
	}

	resp, err := runAsyncSpinner(cmd.ErrOrStderr(), label, func() domain.Response {
		return call(cmd)
	})
	if err != nil {
		return err
	}

	return writeResponse(cmd, app, resp)
}
