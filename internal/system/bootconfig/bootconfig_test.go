package bootconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/einkpi/einkpi-setup/internal/system"
)

// shRunner executes the generated append command for real (minus the sudo
// prefix, since the temp file is user-owned) and counts invocations, so the
// tests exercise the exact shell payload the enabler produces.
type shRunner struct {
	calls int
}

func (r *shRunner) Run(ctx context.Context, name string, args ...string) error {
	r.calls++

	if name == "sudo" {
		name, args = args[0], args[1:]
	}

	return system.ExecRunner{}.Run(ctx, name, args...)
}

func (r *shRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return "", r.Run(ctx, name, args...)
}

func writeBootConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// TestContainsLine covers exact-line matching semantics.
func TestContainsLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "present", content: "arm_64bit=1\ndtparam=spi=on\n", want: true},
		{name: "present with whitespace", content: "  dtparam=spi=on  \n", want: true},
		{name: "present without trailing newline", content: "arm_64bit=1\ndtparam=spi=on", want: true},
		{name: "absent", content: "arm_64bit=1\n", want: false},
		{name: "commented out does not count", content: "#dtparam=spi=on\n", want: false},
		{name: "prefix does not count", content: "dtparam=spi=on,othersetting\n", want: false},
		{name: "empty", content: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ContainsLine(tt.content, SPILine))
		})
	}
}

// TestLocate_FirstExistingWins probes candidates in order.
func TestLocate_FirstExistingWins(t *testing.T) {
	t.Parallel()

	first := writeBootConfig(t, "")
	second := writeBootConfig(t, "")

	path, err := Enabler{Candidates: []string{first, second}}.Locate()
	require.NoError(t, err)
	require.Equal(t, first, path)

	path, err = Enabler{Candidates: []string{filepath.Join(t.TempDir(), "missing"), second}}.Locate()
	require.NoError(t, err)
	require.Equal(t, second, path)
}

// TestLocate_NoneExistIsFatal: neither candidate existing aborts the run.
func TestLocate_NoneExistIsFatal(t *testing.T) {
	t.Parallel()

	_, err := Enabler{Candidates: []string{filepath.Join(t.TempDir(), "missing")}}.Locate()
	require.ErrorIs(t, err, ErrNoBootConfig)
}

// TestEnsureSPI_AppendsOnceAndSignalsReboot verifies a single append plus the
// reboot signal on first run, and a silent no-op on the second.
func TestEnsureSPI_AppendsOnceAndSignalsReboot(t *testing.T) {
	t.Parallel()

	path := writeBootConfig(t, "arm_64bit=1\n")
	runner := &shRunner{}
	enabler := Enabler{Runner: runner, Candidates: []string{path}}

	reboot, err := enabler.EnsureSPI(context.Background())
	require.NoError(t, err)
	require.True(t, reboot)
	require.Equal(t, 1, runner.calls)

	// Re-run: the line is present, no append, no reboot signal.
	reboot, err = enabler.EnsureSPI(context.Background())
	require.NoError(t, err)
	require.False(t, reboot)
	require.Equal(t, 1, runner.calls)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "arm_64bit=1\n"+SPILine+"\n", string(contents))
}

// TestEnsureSPI_LastLineWithoutNewline must not glue the directive onto the
// existing last setting, and the second run must still converge to a no-op.
func TestEnsureSPI_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	path := writeBootConfig(t, "arm_64bit=1")
	runner := &shRunner{}
	enabler := Enabler{Runner: runner, Candidates: []string{path}}

	reboot, err := enabler.EnsureSPI(context.Background())
	require.NoError(t, err)
	require.True(t, reboot)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "arm_64bit=1\n"+SPILine+"\n", string(contents))

	reboot, err = enabler.EnsureSPI(context.Background())
	require.NoError(t, err)
	require.False(t, reboot)
	require.Equal(t, 1, runner.calls)

	// Contents unchanged after the converged re-run.
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(contents), string(again))
}

// TestEnsureSPI_EmptyFile appends without a leading blank line.
func TestEnsureSPI_EmptyFile(t *testing.T) {
	t.Parallel()

	path := writeBootConfig(t, "")
	runner := &shRunner{}

	reboot, err := Enabler{Runner: runner, Candidates: []string{path}}.EnsureSPI(context.Background())
	require.NoError(t, err)
	require.True(t, reboot)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, SPILine+"\n", string(contents))
}

// TestEnsureSPI_AlreadyEnabled raises no reboot signal.
func TestEnsureSPI_AlreadyEnabled(t *testing.T) {
	t.Parallel()

	path := writeBootConfig(t, SPILine+"\n")
	runner := &shRunner{}

	reboot, err := Enabler{Runner: runner, Candidates: []string{path}}.EnsureSPI(context.Background())
	require.NoError(t, err)
	require.False(t, reboot)
	require.Zero(t, runner.calls)
}
