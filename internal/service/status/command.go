package status

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/einkpi/einkpi-setup/internal/assets"
	"github.com/einkpi/einkpi-setup/internal/config"
	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
	"github.com/einkpi/einkpi-setup/internal/system/bootconfig"
	"github.com/einkpi/einkpi-setup/internal/systemd"
)

// Options are inputs accepted by the status entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
}

// ErrNotConverged indicates at least one check failed; the CLI maps it to a
// non-zero exit without treating it as a usage error.
var ErrNotConverged = errors.New("host is not fully provisioned")

// Check is one read-only convergence probe.
type Check struct {
	Name string
	OK   bool
	Note string
}

// Run reports the per-step convergence state of the host without mutating
// anything. It mirrors the provisioning pipeline check for check.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "einkpi-status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	runner := system.ExecRunner{Timeout: cfg.CommandTimeout}
	manager := systemd.NewManager(ctx, runner)

	defer manager.Close()

	checks := collect(ctx, cfg, manager)

	converged := true

	for _, c := range checks {
		mark := "ok"
		if !c.OK {
			mark = "MISSING"
			converged = false
		}

		line := fmt.Sprintf("  %-10s %s", c.Name, mark)
		if c.Note != "" {
			line += "  (" + c.Note + ")"
		}

		fmt.Println(line)
	}

	if !converged {
		return ErrNotConverged
	}

	fmt.Printf("\nFully provisioned. Web UI: http://%s:%d\n", system.PrimaryIP(), cfg.HTTPPort)

	return nil
}

// collect runs every probe in pipeline order.
func collect(ctx context.Context, cfg *config.Config, manager systemd.Manager) []Check {
	fetcher := assets.Fetcher{InstallDir: cfg.InstallDir}
	unit := systemd.UnitName(cfg.ServiceName)

	checks := []Check{
		spiCheck(),
		existsCheck("source", filepath.Join(cfg.InstallDir, ".git")),
		existsCheck("venv", filepath.Join(cfg.InstallDir, "venv", "bin", "python")),
		{Name: "drivers", OK: fetcher.Complete()},
		existsCheck("config", filepath.Join(cfg.InstallDir, assets.ConfigFilename)),
		existsCheck("uploads", filepath.Join(cfg.InstallDir, assets.UploadsDirName)),
		serviceCheck(ctx, cfg, manager, unit),
	}

	return checks
}

// spiCheck probes the boot config for the SPI directive.
func spiCheck() Check {
	enabler := bootconfig.Enabler{}

	path, err := enabler.Locate()
	if err != nil {
		return Check{Name: "spi", Note: "no boot config found"}
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Check{Name: "spi", Note: "boot config unreadable"}
	}

	return Check{Name: "spi", OK: bootconfig.ContainsLine(string(contents), bootconfig.SPILine)}
}

// serviceCheck probes unit file presence and active state, and flags stray
// interpreter processes that run outside the supervisor.
func serviceCheck(ctx context.Context, cfg *config.Config, manager systemd.Manager, unit string) Check {
	installer := systemd.Installer{}
	if !installer.Installed(cfg.ServiceName) {
		return Check{Name: "service", Note: "unit file not installed"}
	}

	active, err := manager.IsActive(ctx, unit)
	if err != nil {
		return Check{Name: "service", Note: err.Error()}
	}

	check := Check{Name: "service", OK: active}
	if !active {
		if n := strayPythonCount(); n > 0 {
			check.Note = fmt.Sprintf("unit inactive, but %d python process(es) running; app may have been started by hand", n)
		}
	}

	return check
}

// strayPythonCount counts running python interpreters. go-ps only exposes
// the executable name, so this is a hint for the operator, not a verdict.
func strayPythonCount() int {
	processes, err := ps.Processes()
	if err != nil {
		return 0
	}

	count := 0

	for _, process := range processes {
		name := strings.ToLower(process.Executable())
		if name == "python" || name == "python3" {
			count++
		}
	}

	return count
}

// existsCheck probes a single filesystem path.
func existsCheck(name, path string) Check {
	_, err := os.Stat(path)
	return Check{Name: name, OK: err == nil}
}
