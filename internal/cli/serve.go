package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/micrograph-mcp/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Starts the micrograph-mcp MCP server on stdin/stdout. Logs go to the configured
log file or stderr, never to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Info("Starting micrograph-mcp server")

			srv := server.CreateServer(a.cfg, a.log)
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
