package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kishore1288/nodenewsearch/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "smesearch",
	Short: "Streaming search front end for the document management API",
	Long: `smesearch accepts structured document searches over a websocket, runs
them against the document management API, and streams each result back
enriched with annotator links, download links and metadata.

It can also run one-shot searches from the command line and expose the
same search as MCP tools for AI agents.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
