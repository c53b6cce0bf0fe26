package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/address-compare/internal/idfile"
	"github.com/sells-group/address-compare/internal/lookup"
)

var (
	lookupJSON   bool
	lookupLoqate bool
	lookupFile   string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [identifier...]",
	Short: "Look up CDS locations for entity or BvD identifiers",
	Long:  "Looks up each identifier against the CDS locations API in order. Identifiers may also be read from the first column of a CSV or XLSX file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ids, err := lookupIdentifiers(args, lookupFile)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, envOptions{cds: true})
		if err != nil {
			return err
		}
		defer env.Close()

		entries := env.Service.Batch(ctx, ids, lookup.Options{LoqateOnly: lookupLoqate})

		out := cmd.OutOrStdout()
		if lookupJSON {
			if err := writeJSON(out, entries); err != nil {
				return eris.Wrap(err, "lookup: write json")
			}
		} else {
			formatBatch(out, entries)
		}

		failed := 0
		for _, e := range entries {
			if e.Failed() {
				failed++
			}
		}
		if failed > 0 {
			return eris.Errorf("lookup: %d of %d lookups failed", failed, len(entries))
		}
		return nil
	},
}

// lookupIdentifiers joins the positional identifiers with those read from
// file.
func lookupIdentifiers(args []string, file string) ([]string, error) {
	ids := append([]string(nil), args...)
	if file != "" {
		more, err := idfile.Read(file)
		if err != nil {
			return nil, eris.Wrap(err, "lookup: read identifiers")
		}
		ids = append(ids, more...)
	}
	if len(ids) == 0 {
		return nil, eris.New("lookup: at least one identifier or --file is required")
	}
	return ids, nil
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print entries as JSON")
	lookupCmd.Flags().BoolVar(&lookupLoqate, "loqate", false, "keep only Loqate-standardized addresses")
	lookupCmd.Flags().StringVar(&lookupFile, "file", "", "read identifiers from a CSV or XLSX file")
	rootCmd.AddCommand(lookupCmd)
}
