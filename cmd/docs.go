package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/address-compare/internal/identifier"
	"github.com/sells-group/address-compare/internal/lookup"
)

var (
	docsJSON   bool
	docsLoqate bool
)

var docsCmd = &cobra.Command{
	Use:   "docs [id...]",
	Short: "Compare addresses of stored documents",
	Long:  "Flattens the addresses of the given documents (all documents, up to docstore.max_results, when no id is given) and groups them by document id.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, envOptions{docs: true})
		if err != nil {
			return err
		}
		defer env.Close()

		ids := identifier.Split(strings.Join(args, ","))
		res, err := env.Service.Documents(ctx, ids, lookup.Options{LoqateOnly: docsLoqate})
		if err != nil {
			return eris.Wrap(err, "docs")
		}

		out := cmd.OutOrStdout()
		if docsJSON {
			return writeJSON(out, res)
		}
		formatResult(out, res)
		return nil
	},
}

func init() {
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "print the result as JSON")
	docsCmd.Flags().BoolVar(&docsLoqate, "loqate", false, "keep only Loqate-standardized addresses")
	rootCmd.AddCommand(docsCmd)
}
