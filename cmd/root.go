package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/net-request/internal/app"
	"github.com/oshokin/net-request/internal/config"
	"github.com/oshokin/net-request/internal/logger"
	"github.com/oshokin/net-request/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals // Filled by the root command flags.
	fetchParams app.FetchParams

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "net-request [flags] {url}",
		Short: "Send an HTTP request with session cookies and proxy authentication.",
		Long: `net-request sends a single HTTP request and writes the response body to stdout or a file.

Before sending, the cookies stored in the selected partition for the request origin
are attached; cookies set by the response are stored back. Partitions whose names
start with "persist:" are saved between runs.

Proxy login challenges are answered with --proxy-user and --proxy-password,
or with the proxy_username and proxy_password default options.`,
		Version:          version.Short(),
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, args []string) {
			fetchParams.URL = args[0]

			result, err := app.ExecuteFetchCommand(cmd.Context(), appConfig, fetchParams, cmd.OutOrStdout())
			if err != nil {
				logger.Fatalf(cmd.Context(), "Request failed: %v", err)
			}

			if result.StatusCode >= http.StatusBadRequest {
				logger.Warnf(cmd.Context(), "Server responded with %s", result.Status)
			}
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	persistentFlags := rootCmd.PersistentFlags()

	persistentFlags.StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	persistentFlags.String(
		"log-level",
		"",
		"log level: debug, info, warn, error.")

	persistentFlags.String(
		"data-dir",
		"",
		"directory where persistent partitions are stored.")

	persistentFlags.String(
		"user-agent",
		"",
		"User-Agent sent when the request does not set one.")

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.StringVarP(&fetchParams.Method, "method", "X", "", "HTTP method (default GET).")
	rootCmdFlags.StringArrayVarP(&fetchParams.Headers, "header", "H", nil, "request header in 'Name: value' form, repeatable.")
	rootCmdFlags.StringVarP(&fetchParams.Body, "data", "d", "", "request body.")
	rootCmdFlags.StringVarP(&fetchParams.OutputPath, "output", "o", "", "file to write the response body to.")
	rootCmdFlags.StringVarP(&fetchParams.Partition, "partition", "p", "", "cookie partition, for example 'persist:work'.")
	rootCmdFlags.StringVar(&fetchParams.Proxy, "proxy", "", "proxy URL, or 'direct' to ignore proxy environment variables.")
	rootCmdFlags.StringVar(&fetchParams.ProxyUsername, "proxy-user", "", "username for proxy login challenges.")
	rootCmdFlags.StringVar(&fetchParams.ProxyPassword, "proxy-password", "", "password for proxy login challenges.")
	rootCmdFlags.DurationVar(&fetchParams.Timeout, "timeout", 0, "limit for the whole exchange, for example 30s.")
	rootCmdFlags.StringVar(&fetchParams.Redirect, "redirect", "", "redirect mode: follow, error, manual.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if err = bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
		logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flag := flags.Lookup("data-dir"); flag != nil && flag.Changed {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}

	if flag := flags.Lookup("user-agent"); flag != nil && flag.Changed {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}

	return config.ValidateConfig(cfg)
}
