package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cliFlags holds flags shared by every command.
type cliFlags struct {
	ConfigFile string
	Verbosity  string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "stepwise",
		Short: "stepwise - scripted browser automation",
		Long: `stepwise runs YAML browser scripts against Chromium through Playwright
or the Chrome DevTools Protocol.

Examples:
  stepwise run login.yaml
  stepwise run login.yaml --driver chromedp --headless=false
  stepwise run smoke.yaml --config stepwise.yaml --artifacts .stepwise`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to configuration file (YAML)")
	root.PersistentFlags().StringVarP(&flags.Verbosity, "verbosity", "v", "", "Console verbosity: quiet, normal, verbose or debug")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stepwise v%s\n", version)
		},
	})
	return root
}
