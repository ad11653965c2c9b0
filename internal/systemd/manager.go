package systemd

import (
	"context"
	"fmt"

	sysdbus "github.com/coreos/go-systemd/v22/dbus"

	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
)

// Manager controls the process supervisor for one unit.
type Manager interface {
	// Reload makes systemd re-read unit files after an install.
	Reload(ctx context.Context) error
	// Enable marks the unit for start at boot.
	Enable(ctx context.Context, unit string) error
	// Start starts the unit now and waits for the job to settle.
	Start(ctx context.Context, unit string) error
	// Stop stops the unit and waits for the job to settle.
	Stop(ctx context.Context, unit string) error
	// Disable removes the unit's boot-time enablement.
	Disable(ctx context.Context, unit string) error
	// IsActive reports whether the unit is loaded and running.
	IsActive(ctx context.Context, unit string) (bool, error)
	// Close releases the underlying connection, if any.
	Close()
}

// NewManager connects to systemd over the system bus, falling back to
// systemctl through the runner when the bus is unavailable (typically
// when running unprivileged, where sudo systemctl still works).
func NewManager(ctx context.Context, runner system.Runner) Manager {
	conn, err := sysdbus.NewSystemConnectionContext(ctx)
	if err != nil {
		logger.DebugKV(ctx, "System bus unavailable, using systemctl", "error", err)
		return SystemctlManager{Runner: runner}
	}

	return &DBusManager{conn: conn}
}

// DBusManager talks to systemd directly over D-Bus.
type DBusManager struct {
	conn *sysdbus.Conn
}

// Reload implements Manager.
func (m *DBusManager) Reload(ctx context.Context) error {
	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}

	return nil
}

// Enable implements Manager.
func (m *DBusManager) Enable(ctx context.Context, unit string) error {
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
		return fmt.Errorf("enable %s: %w", unit, err)
	}

	return nil
}

// Start implements Manager.
func (m *DBusManager) Start(ctx context.Context, unit string) error {
	return m.waitJob(ctx, unit, "start", m.conn.StartUnitContext)
}

// Stop implements Manager.
func (m *DBusManager) Stop(ctx context.Context, unit string) error {
	return m.waitJob(ctx, unit, "stop", m.conn.StopUnitContext)
}

// Disable implements Manager.
func (m *DBusManager) Disable(ctx context.Context, unit string) error {
	if _, err := m.conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
		return fmt.Errorf("disable %s: %w", unit, err)
	}

	return nil
}

// IsActive implements Manager.
func (m *DBusManager) IsActive(ctx context.Context, unit string) (bool, error) {
	statuses, err := m.conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return false, fmt.Errorf("query %s: %w", unit, err)
	}

	for _, status := range statuses {
		if status.Name == unit {
			return status.LoadState == "loaded" && status.ActiveState == "active", nil
		}
	}

	return false, nil
}

// Close implements Manager.
func (m *DBusManager) Close() {
	m.conn.Close()
}

// jobFunc matches the signature of StartUnitContext/StopUnitContext.
type jobFunc func(ctx context.Context, name string, mode string, ch chan<- string) (int, error)

// waitJob enqueues a job in "replace" mode and waits for its result.
func (m *DBusManager) waitJob(ctx context.Context, unit, verb string, fn jobFunc) error {
	resultCh := make(chan string, 1)

	if _, err := fn(ctx, unit, "replace", resultCh); err != nil {
		return fmt.Errorf("%s %s: %w", verb, unit, err)
	}

	select {
	case result := <-resultCh:
		if result != "done" {
			return fmt.Errorf("%s %s: job result %q", verb, unit, result)
		}

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemctlManager shells out to systemctl with sudo escalation.
type SystemctlManager struct {
	Runner system.Runner
}

// Reload implements Manager.
func (m SystemctlManager) Reload(ctx context.Context) error {
	return m.systemctl(ctx, "daemon-reload")
}

// Enable implements Manager.
func (m SystemctlManager) Enable(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "enable", unit)
}

// Start implements Manager.
func (m SystemctlManager) Start(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "start", unit)
}

// Stop implements Manager.
func (m SystemctlManager) Stop(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "stop", unit)
}

// Disable implements Manager.
func (m SystemctlManager) Disable(ctx context.Context, unit string) error {
	return m.systemctl(ctx, "disable", unit)
}

// IsActive implements Manager. `systemctl is-active` exits non-zero for
// inactive units, which the runner reports as an error; that is a clean
// "not active", not a failure.
func (m SystemctlManager) IsActive(ctx context.Context, unit string) (bool, error) {
	out, err := m.Runner.Output(ctx, "systemctl", "is-active", unit)
	if err != nil {
		return false, nil
	}

	return out == "active", nil
}

// Close implements Manager.
func (SystemctlManager) Close() {}

func (m SystemctlManager) systemctl(ctx context.Context, args ...string) error {
	name, elevated := system.Elevate("systemctl", args...)
	if err := m.Runner.Run(ctx, name, elevated...); err != nil {
		return fmt.Errorf("systemctl %s: %w", args[0], err)
	}

	return nil
}
