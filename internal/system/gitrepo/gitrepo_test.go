package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/einkpi/einkpi-setup/internal/system"
)

// fakeRunner records executed git commands.
type fakeRunner struct {
	commands []string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.commands = append(f.commands, system.CommandLine(name, args...))
	return f.err
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return "", f.Run(ctx, name, args...)
}

// TestEnsure_ClonesWhenAbsent performs a fresh clone into a missing directory.
func TestEnsure_ClonesWhenAbsent(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	dir := filepath.Join(t.TempDir(), "einkpi")
	s := Syncer{Runner: runner, URL: "https://example.com/einkpi.git", Branch: "main", Dir: dir}

	cloned, err := s.Ensure(context.Background())
	require.NoError(t, err)
	require.True(t, cloned)
	require.Len(t, runner.commands, 1)
	require.Equal(t, "git clone --branch main https://example.com/einkpi.git "+dir, runner.commands[0])
}

// TestEnsure_PullsWhenPresent updates in place and attempts no clone.
func TestEnsure_PullsWhenPresent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

	runner := &fakeRunner{}
	s := Syncer{Runner: runner, URL: "https://example.com/einkpi.git", Branch: "main", Dir: dir}

	cloned, err := s.Ensure(context.Background())
	require.NoError(t, err)
	require.False(t, cloned)
	require.Len(t, runner.commands, 1)
	require.Equal(t, "git -C "+dir+" pull --ff-only origin main", runner.commands[0])
}

// TestEnsure_PlainDirectoryIsCloned: a directory without .git is not a checkout.
func TestEnsure_PlainDirectoryIsCloned(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &fakeRunner{}
	s := Syncer{Runner: runner, URL: "https://example.com/einkpi.git", Branch: "main", Dir: dir}

	cloned, err := s.Ensure(context.Background())
	require.NoError(t, err)
	require.True(t, cloned)
	require.Contains(t, runner.commands[0], "git clone")
}

// TestEnsure_GitFailurePropagates surfaces git's own error as fatal.
func TestEnsure_GitFailurePropagates(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 128")}
	s := Syncer{Runner: runner, URL: "https://example.com/einkpi.git", Branch: "main", Dir: filepath.Join(t.TempDir(), "x")}

	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "clone repository")
}
