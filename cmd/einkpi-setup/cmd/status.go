package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/einkpi/einkpi-setup/internal/service/status"
)

// statusCmd reports the host's convergence state without changing anything.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report which provisioning steps have converged on this host.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		applyLogLevel()

		err := status.Run(ctx, &status.Options{ConfigPath: configPath})
		if errors.Is(err, status.ErrNotConverged) {
			fmt.Fprintln(os.Stderr, "\nRun einkpi-setup to converge the missing steps.")
		}

		return err
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(statusCmd)
}
