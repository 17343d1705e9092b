package cli

import (
	"github.com/spf13/cobra"

	"llmkeyring/mcpserver"
)

func (r *runner) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the provider registry to MCP clients over stdio",
		Long: `Serve the provider registry over the Model Context Protocol on stdin and
stdout. Tools: list_providers, test_provider, list_models, detect_provider.
API keys are never exposed.

Example client entry:
  {"command": "llmkeyring", "args": ["mcp"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.loadUnlocked(cmd)
			if err != nil {
				return err
			}
			root := cmd.Root()
			srv := mcpserver.New(app.Registry, app.Messages, app.Logger, root.Version)
			return srv.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
