package systemd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/einkpi/einkpi-setup/internal/system"
)

// copyRunner simulates the privileged cp/chmod/rm sequence against a
// user-writable unit directory.
type copyRunner struct {
	commands []string
}

func (r *copyRunner) Run(_ context.Context, name string, args ...string) error {
	r.commands = append(r.commands, system.CommandLine(name, args...))

	// Strip the sudo prefix when running unprivileged.
	if name == "sudo" {
		name, args = args[0], args[1:]
	}

	switch name {
	case "cp":
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		return os.WriteFile(args[1], data, 0o644)
	case "rm":
		return os.Remove(args[len(args)-1])
	}

	return nil
}

func (r *copyRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return "", r.Run(ctx, name, args...)
}

// fakeManager records supervisor calls.
type fakeManager struct {
	calls  []string
	active bool
}

func (m *fakeManager) Reload(context.Context) error { m.calls = append(m.calls, "reload"); return nil }

func (m *fakeManager) Enable(_ context.Context, unit string) error {
	m.calls = append(m.calls, "enable "+unit)
	return nil
}

func (m *fakeManager) Start(_ context.Context, unit string) error {
	m.calls = append(m.calls, "start "+unit)
	m.active = true

	return nil
}

func (m *fakeManager) Stop(_ context.Context, unit string) error {
	m.calls = append(m.calls, "stop "+unit)
	m.active = false

	return nil
}

func (m *fakeManager) Disable(_ context.Context, unit string) error {
	m.calls = append(m.calls, "disable "+unit)
	return nil
}

func (m *fakeManager) IsActive(context.Context, string) (bool, error) { return m.active, nil }

func (m *fakeManager) Close() {}

// TestRenderUnit substitutes all three parameters and carries the restart policy.
func TestRenderUnit(t *testing.T) {
	t.Parallel()

	content, err := RenderUnit(UnitParams{
		User:       "pi",
		WorkingDir: "/home/pi/einkpi",
		PythonPath: "/home/pi/einkpi/venv/bin/python",
	})
	require.NoError(t, err)

	unit := string(content)
	require.Contains(t, unit, "User=pi")
	require.Contains(t, unit, "WorkingDirectory=/home/pi/einkpi")
	require.Contains(t, unit, "ExecStart=/home/pi/einkpi/venv/bin/python app.py")
	require.Contains(t, unit, "Restart=on-failure")
	require.Contains(t, unit, "RestartSec=10")
	require.Contains(t, unit, "After=network-online.target")
	require.Contains(t, unit, "WantedBy=multi-user.target")
}

// TestUnitName appends the suffix exactly once.
func TestUnitName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "einkpi.service", UnitName("einkpi"))
	require.Equal(t, "einkpi.service", UnitName("einkpi.service"))
}

// TestInstaller_Install writes the unit and walks reload/enable/start in order.
func TestInstaller_Install(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &copyRunner{}
	manager := &fakeManager{}
	inst := Installer{Runner: runner, Manager: manager, UnitDir: dir}

	require.NoError(t, inst.Install(context.Background(), "einkpi", []byte("[Unit]\nDescription=x\n")))
	require.Equal(t, []string{"reload", "enable einkpi.service", "start einkpi.service"}, manager.calls)
	require.True(t, inst.Installed("einkpi"))

	data, err := os.ReadFile(filepath.Join(dir, "einkpi.service"))
	require.NoError(t, err)
	require.Contains(t, string(data), "Description=x")
}

// TestInstaller_InstallOverwrites: the latest run's unit always wins.
func TestInstaller_InstallOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inst := Installer{Runner: &copyRunner{}, Manager: &fakeManager{}, UnitDir: dir}

	require.NoError(t, inst.Install(context.Background(), "einkpi", []byte("User=pi\n")))
	require.NoError(t, inst.Install(context.Background(), "einkpi", []byte("User=alice\n")))

	data, err := os.ReadFile(filepath.Join(dir, "einkpi.service"))
	require.NoError(t, err)
	require.Contains(t, string(data), "User=alice")
	require.NotContains(t, string(data), "User=pi")
}

// TestInstaller_Remove stops, disables, deletes and reloads.
func TestInstaller_Remove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &copyRunner{}
	manager := &fakeManager{}
	inst := Installer{Runner: runner, Manager: manager, UnitDir: dir}

	require.NoError(t, inst.Install(context.Background(), "einkpi", []byte("x")))
	manager.calls = nil

	require.NoError(t, inst.Remove(context.Background(), "einkpi"))
	require.Equal(t, []string{"stop einkpi.service", "disable einkpi.service", "reload"}, manager.calls)
	require.False(t, inst.Installed("einkpi"))

	removed := false
	for _, c := range runner.commands {
		if strings.Contains(c, "rm -f") {
			removed = true
		}
	}
	require.True(t, removed)
}
