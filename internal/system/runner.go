package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/einkpi/einkpi-setup/internal/logger"
)

// Runner executes external commands. Provisioning steps depend on this
// interface instead of os/exec so tests can record and fake invocations.
type Runner interface {
	// Run executes the command, streaming its output to the invoking
	// terminal, and blocks until it finishes or the context is canceled.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its trimmed standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no bound beyond the context.
	Timeout time.Duration
}

// Run executes the command with output attached to the current terminal.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmdCtx, cancel := r.bound(ctx)
	defer cancel()

	logger.DebugKV(ctx, "Running command", "command", CommandLine(name, args...))

	cmd := exec.CommandContext(cmdCtx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", CommandLine(name, args...), err)
	}

	return nil
}

// Output executes the command and returns its trimmed standard output.
func (r ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmdCtx, cancel := r.bound(ctx)
	defer cancel()

	logger.DebugKV(ctx, "Running command for output", "command", CommandLine(name, args...))

	out, err := exec.CommandContext(cmdCtx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", CommandLine(name, args...), err)
	}

	return strings.TrimSpace(string(out)), nil
}

func (r ExecRunner) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.Timeout)
}

// DryRunner logs every command instead of executing it.
// It backs the --dry-run flag.
type DryRunner struct{}

// Run logs the command and reports success.
func (DryRunner) Run(ctx context.Context, name string, args ...string) error {
	logger.Infof(ctx, "[dry-run] %s", CommandLine(name, args...))
	return nil
}

// Output logs the command and returns an empty string.
func (DryRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	logger.Infof(ctx, "[dry-run] %s", CommandLine(name, args...))
	return "", nil
}

// CommandLine renders a command and its arguments as a single shell-like
// string for log messages, quoting arguments containing whitespace.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{name}, args...) {
		if strings.ContainsAny(p, " \t\"'") {
			parts = append(parts, fmt.Sprintf("%q", p))
			continue
		}

		parts = append(parts, p)
	}

	return strings.Join(parts, " ")
}
