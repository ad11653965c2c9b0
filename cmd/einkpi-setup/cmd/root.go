package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/einkpi/einkpi-setup/internal/config"
	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/service/provision"
	"github.com/einkpi/einkpi-setup/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel controls verbosity of the provisioning output.
	logLevel string
	// dryRun prints every mutating command instead of executing it.
	dryRun bool

	// rootCmd represents the base command that provisions the host.
	rootCmd = &cobra.Command{
		Use:   "einkpi-setup",
		Short: "Provision this Raspberry Pi to run the EinkPi display service.",
		Long: `Brings a fresh Raspberry Pi host from bare OS to a running EinkPi e-ink
display service in one idempotent pass: OS packages, SPI enablement, source
checkout, Python environment, display drivers and systemd registration.

Safe to re-run at any time: completed steps converge to no-ops, and
re-running is the intended recovery after any failure.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			options := &provision.Options{
				ConfigPath: configPath,
				DryRun:     dryRun,
			}

			return provision.Run(ctx, options)
		},
	}
)

// Execute runs the einkpi-setup CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel parses the --log-level flag into the global logger.
func applyLogLevel() {
	if level, ok := logger.ParseLogLevel(logLevel); ok {
		logger.SetLevel(level)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print commands without executing them")
}
