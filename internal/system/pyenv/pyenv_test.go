package pyenv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/einkpi/einkpi-setup/internal/system"
)

// fakeRunner records executed commands and can fail at a given call index.
type fakeRunner struct {
	commands []string
	failAt   int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.commands = append(f.commands, system.CommandLine(name, args...))

	if f.failAt > 0 && len(f.commands) == f.failAt {
		return errors.New("exit status 1")
	}

	return nil
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return "", f.Run(ctx, name, args...)
}

// TestBuild_Sequence verifies venv recreation, manifest install and the
// unconditional hardware package install, in that order.
func TestBuild_Sequence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &fakeRunner{}
	b := Builder{Runner: runner, Dir: dir}

	require.NoError(t, b.Build(context.Background()))
	require.Len(t, runner.commands, 3)

	require.Equal(t, "python3 -m venv --clear "+b.VenvDir(), runner.commands[0])
	require.Equal(t, b.PipPath()+" install -r "+filepath.Join(dir, "requirements.txt"), runner.commands[1])
	require.Equal(t, b.PipPath()+" install RPi.GPIO spidev", runner.commands[2])
}

// TestBuild_RequirementsFailureIsFatal stops before the hardware install.
func TestBuild_RequirementsFailureIsFatal(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{failAt: 2}
	b := Builder{Runner: runner, Dir: t.TempDir()}

	err := b.Build(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "install requirements")
	require.Len(t, runner.commands, 2)
}

// TestPaths derive from the install directory.
func TestPaths(t *testing.T) {
	t.Parallel()

	b := Builder{Dir: "/home/pi/einkpi"}
	require.Equal(t, "/home/pi/einkpi/venv", b.VenvDir())
	require.Equal(t, "/home/pi/einkpi/venv/bin/python", b.PythonPath())
	require.Equal(t, "/home/pi/einkpi/venv/bin/pip", b.PipPath())
}
