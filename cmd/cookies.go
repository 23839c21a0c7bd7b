package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/net-request/internal/app"
	"github.com/oshokin/net-request/internal/logger"
)

var (
	//nolint:gochecknoglobals // Filled by the cookies command flags.
	cookiesPartition string

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	cookiesCmd = &cobra.Command{
		Use:   "cookies",
		Short: "Inspect and edit the cookies of a partition",
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	cookiesListCmd = &cobra.Command{
		Use:   "list {url}",
		Short: "Print the cookies that would be sent to a URL",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := app.ExecuteCookiesList(cmd.Context(), appConfig, cookiesPartition, args[0], cmd.OutOrStdout())
			if err != nil {
				logger.Fatalf(cmd.Context(), "Failed to list cookies: %v", err)
			}
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	cookiesSetCmd = &cobra.Command{
		Use:   "set {url} {name=value}...",
		Short: "Store cookies for a URL",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // URL and at least one cookie.
		Run: func(cmd *cobra.Command, args []string) {
			err := app.ExecuteCookiesSet(cmd.Context(), appConfig, cookiesPartition, args[0], args[1:])
			if err != nil {
				logger.Fatalf(cmd.Context(), "Failed to set cookies: %v", err)
			}
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	cookiesCmd.PersistentFlags().StringVarP(
		&cookiesPartition,
		"partition",
		"p",
		"",
		"cookie partition (default is the configured default_partition).")

	cookiesCmd.AddCommand(cookiesListCmd, cookiesSetCmd)
	rootCmd.AddCommand(cookiesCmd)
}
