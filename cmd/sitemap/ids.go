package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitemapgen/internal/builder"
	"sitemapgen/internal/report"
)

func newIDsCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "List the note ids found in the content source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := builder.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			ids, err := b.ExtractIDs(cmd.Context())
			if err != nil {
				return err
			}

			if plain {
				for _, id := range ids {
					fmt.Fprintln(a.stdout, id)
				}

				return nil
			}

			fmt.Fprint(a.stdout, report.IDs(ids))

			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print one id per line without a table")

	return cmd
}
