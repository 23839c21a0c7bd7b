package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/net-request/internal/app"
	"github.com/oshokin/net-request/internal/logger"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	defaultsCmd = &cobra.Command{
		Use:   "defaults",
		Short: "Manage the options merged into every request",
		Long: `Manage the global_options section of the configuration file.

Every request starts from these options; command-line flags take precedence.
Known options: method, headers, partition, proxy, proxy_username, proxy_password,
timeout, redirect, user_agent, login_timeout, max_login_attempts.`,
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	defaultsListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print the default options",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := app.ExecuteDefaultsList(appConfig, cmd.OutOrStdout()); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to list default options: %v", err)
			}
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	defaultsSetCmd = &cobra.Command{
		Use:   "set {name} {value}",
		Short: "Set a default option",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and value.
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.ExecuteDefaultsSet(cmd.Context(), appConfig, args[0], args[1]); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to set default option: %v", err)
			}
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	defaultsUnsetCmd = &cobra.Command{
		Use:   "unset {name}...",
		Short: "Remove default options",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := app.ExecuteDefaultsUnset(cmd.Context(), appConfig, args); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to remove default options: %v", err)
			}
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	defaultsCmd.AddCommand(defaultsListCmd, defaultsSetCmd, defaultsUnsetCmd)
	rootCmd.AddCommand(defaultsCmd)
}
