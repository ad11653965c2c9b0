package apt

import (
	"context"
	"fmt"

	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
)

// DefaultPackages is the fixed OS dependency set of the display service:
// git for fetching the application, the python3 toolchain for the venv,
// and libopenjp2 for Pillow's JPEG2000 support on Raspberry Pi OS.
func DefaultPackages() []string {
	return []string{
		"git",
		"python3",
		"python3-pip",
		"python3-venv",
		"libopenjp2-7",
	}
}

// Installer ensures a fixed list of OS packages is present via apt-get.
type Installer struct {
	// Runner executes the package manager commands.
	Runner system.Runner
	// Packages is the package list; DefaultPackages when empty.
	Packages []string
}

// EnsureInstalled refreshes the package index and installs the package set.
// apt-get is a no-op for packages already at their candidate version, which
// keeps the step idempotent. Any package-manager error is fatal to the run.
func (i Installer) EnsureInstalled(ctx context.Context) error {
	packages := i.Packages
	if len(packages) == 0 {
		packages = DefaultPackages()
	}

	logger.InfoKV(ctx, "Installing OS packages", "packages", packages)

	name, args := system.Elevate("apt-get", "update")
	if err := i.Runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("refresh package index: %w", err)
	}

	installArgs := append([]string{"install", "-y"}, packages...)

	name, args = system.Elevate("apt-get", installArgs...)
	if err := i.Runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("install packages: %w", err)
	}

	return nil
}
