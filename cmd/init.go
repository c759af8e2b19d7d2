package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kishore1288/nodenewsearch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize smesearch configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the upstream API, token generator, name cache and listener, and writes the config file (default .smesearch.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
