package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsuyukimakoto/casket/internal/startup"
)

func newCatalogsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List configured catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := startup.LoadConfig(root.configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			names := cfg.CatalogNames()
			if len(names) == 0 {
				if cfg.Path == "" {
					fmt.Fprintln(out, "No config file found; no catalogs configured.")
				} else {
					fmt.Fprintf(out, "No catalogs configured in %s\n", cfg.Path)
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDATA\tTHUMBNAILS")
			for _, name := range names {
				cat := cfg.Catalogs[name]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, cat.DataPath, cat.ThumbnailPath)
			}
			return tw.Flush()
		},
	}
}
