package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/config"
	"github.com/stevehiehn/theaterdash/internal/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server (stdio, or SSE with --port)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The config is reloaded on every tool call so edits take effect
		// without restarting the server.
		load := func() (*config.Config, error) { return loadConfig(cmd) }
		srv := mcp.NewServer(load, logger, Version)
		if mcpPort > 0 {
			return srv.ServeSSE(cmd.Context(), fmt.Sprintf(":%d", mcpPort))
		}
		return srv.Serve(os.Stdin, os.Stdout)
	},
}

func init() {
	mcpCmd.Flags().IntVar(&mcpPort, "port", 0, "Serve MCP over HTTP/SSE on this port")
	rootCmd.AddCommand(mcpCmd)
}
