package uninstall

import (
	"context"
	"fmt"
	"os"

	"github.com/einkpi/einkpi-setup/internal/config"
	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
	"github.com/einkpi/einkpi-setup/internal/system/bootconfig"
	"github.com/einkpi/einkpi-setup/internal/systemd"
)

// Options are inputs accepted by the uninstall entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Purge additionally removes the install directory with the checkout,
	// venv, drivers, config.json and uploads.
	Purge bool
}

// Run stops and removes the service registration and, with Purge, the
// install directory. The SPI directive in the boot config is deliberately
// left in place: other SPI devices may depend on it.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "einkpi-uninstall")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	runner := system.ExecRunner{Timeout: cfg.CommandTimeout}
	manager := systemd.NewManager(ctx, runner)

	defer manager.Close()

	installer := systemd.Installer{Runner: runner, Manager: manager}

	logger.InfoKV(ctx, "Removing service registration", "unit", systemd.UnitName(cfg.ServiceName))

	if err := installer.Remove(ctx, cfg.ServiceName); err != nil {
		return fmt.Errorf("remove service: %w", err)
	}

	if opts.Purge {
		logger.InfoKV(ctx, "Removing install directory", "dir", cfg.InstallDir)

		if err := os.RemoveAll(cfg.InstallDir); err != nil {
			return fmt.Errorf("remove install directory: %w", err)
		}
	} else {
		fmt.Printf("Install directory kept: %s (use --purge to remove it)\n", cfg.InstallDir)
	}

	if path, err := (bootconfig.Enabler{}).Locate(); err == nil {
		fmt.Printf("SPI stays enabled in %s; remove %q by hand if nothing else needs it.\n",
			path, bootconfig.SPILine)
	}

	return nil
}
