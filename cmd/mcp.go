package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/kishore1288/nodenewsearch/internal/mcp"
)

var (
	mcpToken    string
	mcpUsername string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
search_documents and list_tags tools for AI agents. Tool calls without
credentials use --token or --username.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Stdout carries the protocol; logs go to stderr.
		log := newLogger(cfg, os.Stderr)
		a, err := buildApp(cfg, log, true)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "smesearch MCP server started on stdio (upstream=%s)\n", cfg.Upstream.BaseURL)

		srv := mcpserver.NewServer(a.service, credentialsFromFlags(mcpToken, mcpUsername))
		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpToken, "token", "", "default API token (or SMESEARCH_TOKEN)")
	mcpCmd.Flags().StringVar(&mcpUsername, "username", "", "default username to exchange for a token (or SMESEARCH_USERNAME)")
	rootCmd.AddCommand(mcpCmd)
}
