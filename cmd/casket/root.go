package main

import (
	"github.com/spf13/cobra"

	"github.com/tsuyukimakoto/casket/internal/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "casket",
		Short:        "Copy photos and videos into a date-organized catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.logLevel == "" {
				return nil
			}
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logging.SetLevel(level)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/casket/catalogs.toml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (default from LOG_LEVEL)")

	cmd.AddCommand(newImportCmd(opts), newCatalogsCmd(opts), newVersionCmd())
	return cmd
}
