package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
)

// UnitDir is the standard location for administrator-installed units.
const UnitDir = "/etc/systemd/system"

// unitFileMode is applied to the installed unit file.
const unitFileMode os.FileMode = 0o644

// Installer writes unit files into the systemd unit directory and drives
// the supervisor through a Manager.
type Installer struct {
	// Runner copies the unit into the root-owned unit directory.
	Runner system.Runner
	// Manager reloads, enables and starts the unit.
	Manager Manager
	// UnitDir overrides the target directory (used in tests).
	UnitDir string
}

// Install writes the rendered unit, reloads systemd, then enables and
// starts the unit. The unit file is always overwritten: each run's
// parameters are authoritative over whatever was installed before.
func (i Installer) Install(ctx context.Context, name string, content []byte) error {
	unit := UnitName(name)

	if err := i.writeUnit(ctx, unit, content); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Registering service", "unit", unit)

	if err := i.Manager.Reload(ctx); err != nil {
		return err
	}

	if err := i.Manager.Enable(ctx, unit); err != nil {
		return err
	}

	if err := i.Manager.Start(ctx, unit); err != nil {
		return err
	}

	return nil
}

// Remove stops and disables the unit, deletes its file and reloads systemd.
// A unit that was never installed removes cleanly.
func (i Installer) Remove(ctx context.Context, name string) error {
	unit := UnitName(name)

	// Stop/disable failures for a missing unit are expected; log and move on.
	if err := i.Manager.Stop(ctx, unit); err != nil {
		logger.DebugKV(ctx, "Stop failed", "unit", unit, "error", err)
	}

	if err := i.Manager.Disable(ctx, unit); err != nil {
		logger.DebugKV(ctx, "Disable failed", "unit", unit, "error", err)
	}

	path := filepath.Join(i.unitDir(), unit)
	if _, err := os.Stat(path); err == nil {
		rmName, rmArgs := system.Elevate("rm", "-f", path)
		if err := i.Runner.Run(ctx, rmName, rmArgs...); err != nil {
			return fmt.Errorf("remove unit file: %w", err)
		}
	}

	return i.Manager.Reload(ctx)
}

// Installed reports whether the unit file exists.
func (i Installer) Installed(name string) bool {
	_, err := os.Stat(filepath.Join(i.unitDir(), UnitName(name)))
	return err == nil
}

// writeUnit stages the rendered unit in a temp file owned by the invoking
// user, then copies it into the root-owned unit directory via the runner.
func (i Installer) writeUnit(ctx context.Context, unit string, content []byte) error {
	staged, err := os.CreateTemp("", unit+"-*")
	if err != nil {
		return fmt.Errorf("stage unit file: %w", err)
	}

	stagedPath := staged.Name()

	defer func() {
		_ = os.Remove(stagedPath)
	}()

	if _, err := staged.Write(content); err != nil {
		_ = staged.Close()
		return fmt.Errorf("write staged unit: %w", err)
	}

	if err := staged.Close(); err != nil {
		return fmt.Errorf("close staged unit: %w", err)
	}

	target := filepath.Join(i.unitDir(), unit)

	cpName, cpArgs := system.Elevate("cp", stagedPath, target)
	if err := i.Runner.Run(ctx, cpName, cpArgs...); err != nil {
		return fmt.Errorf("install unit file: %w", err)
	}

	chmodName, chmodArgs := system.Elevate("chmod", fmt.Sprintf("%o", unitFileMode), target)
	if err := i.Runner.Run(ctx, chmodName, chmodArgs...); err != nil {
		return fmt.Errorf("set unit file mode: %w", err)
	}

	return nil
}

func (i Installer) unitDir() string {
	if i.UnitDir != "" {
		return i.UnitDir
	}

	return UnitDir
}

// UnitName appends the .service suffix when absent.
func UnitName(name string) string {
	if filepath.Ext(name) == ".service" {
		return name
	}

	return name + ".service"
}
