package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/einkpi/einkpi-setup/internal/service/uninstall"
)

// purge additionally removes the install directory.
var purge bool

// uninstallCmd removes the service registration.
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop the service and remove its systemd registration.",
	Long: `Stops and disables the EinkPi service and deletes its unit file.
The install directory is kept unless --purge is given. The SPI directive in
the boot config is never touched.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		applyLogLevel()

		return uninstall.Run(ctx, &uninstall.Options{ConfigPath: configPath, Purge: purge})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	uninstallCmd.Flags().BoolVar(&purge, "purge", false, "also remove the install directory")
	rootCmd.AddCommand(uninstallCmd)
}
