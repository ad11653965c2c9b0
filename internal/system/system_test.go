package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCommandLine verifies quoting of arguments containing whitespace.
func TestCommandLine(t *testing.T) {
	t.Parallel()

	require.Equal(t, "apt-get install -y git", CommandLine("apt-get", "install", "-y", "git"))
	require.Equal(t, `sh -c "echo hi"`, CommandLine("sh", "-c", "echo hi"))
}

// TestElevate prepends sudo only for unprivileged processes.
func TestElevate(t *testing.T) {
	orig := geteuid
	t.Cleanup(func() { geteuid = orig })

	geteuid = func() int { return 0 }
	name, args := Elevate("systemctl", "daemon-reload")
	require.Equal(t, "systemctl", name)
	require.Equal(t, []string{"daemon-reload"}, args)

	geteuid = func() int { return 1000 }
	name, args = Elevate("systemctl", "daemon-reload")
	require.Equal(t, "sudo", name)
	require.Equal(t, []string{"systemctl", "daemon-reload"}, args)
}

// TestExecRunner_Output runs a trivial command and checks trimmed output.
func TestExecRunner_Output(t *testing.T) {
	t.Parallel()

	out, err := ExecRunner{}.Output(context.Background(), "echo", "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

// TestExecRunner_RunFailure wraps the failing command line into the error.
func TestExecRunner_RunFailure(t *testing.T) {
	t.Parallel()

	err := ExecRunner{}.Run(context.Background(), "false")
	require.Error(t, err)
	require.Contains(t, err.Error(), "false")
}

// TestDryRunner never executes anything and never fails.
func TestDryRunner(t *testing.T) {
	t.Parallel()

	require.NoError(t, DryRunner{}.Run(context.Background(), "rm", "-rf", "/"))

	out, err := DryRunner{}.Output(context.Background(), "hostname")
	require.NoError(t, err)
	require.Empty(t, out)
}

// TestPrimaryIP returns something non-empty even without a network.
func TestPrimaryIP(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, PrimaryIP())
}
