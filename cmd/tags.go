package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var tagsFlags struct {
	token, username string
	asJSON          bool
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the document tags visible to the caller",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := buildApp(cfg, newLogger(cfg, os.Stderr), false)
		if err != nil {
			return err
		}
		defer a.Close()

		tags, err := a.service.Tags(cmd.Context(), credentialsFromFlags(tagsFlags.token, tagsFlags.username))
		if err != nil {
			return err
		}

		if tagsFlags.asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tags)
		}
		renderTags(cmd.OutOrStdout(), tags)
		return nil
	},
}

func init() {
	tagsCmd.Flags().StringVar(&tagsFlags.token, "token", "", "API token (or SMESEARCH_TOKEN)")
	tagsCmd.Flags().StringVar(&tagsFlags.username, "username", "", "username to exchange for a token (or SMESEARCH_USERNAME)")
	tagsCmd.Flags().BoolVar(&tagsFlags.asJSON, "json", false, "print tags as JSON")
	rootCmd.AddCommand(tagsCmd)
}
