package pyenv

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
)

const (
	// venvDirName is the virtual environment directory inside the install dir.
	venvDirName = "venv"

	// requirementsFilename is the application's dependency manifest.
	requirementsFilename = "requirements.txt"
)

// HardwarePackages are installed unconditionally on top of the manifest:
// GPIO and SPI access for the e-paper display is a host concern the
// application's requirements file does not declare.
func HardwarePackages() []string {
	return []string{"RPi.GPIO", "spidev"}
}

// Builder creates the isolated Python runtime environment for the service.
type Builder struct {
	// Runner executes python and pip; the venv belongs to the invoking user.
	Runner system.Runner
	// Dir is the application install directory containing requirements.txt.
	Dir string
}

// Build recreates the virtual environment and installs the declared manifest
// plus the fixed hardware package set. The venv is rebuilt on every run:
// --clear makes python discard any previous environment, so a half-built
// venv from an interrupted run cannot survive.
func (b Builder) Build(ctx context.Context) error {
	logger.InfoKV(ctx, "Creating virtual environment", "dir", b.VenvDir())

	if err := b.Runner.Run(ctx, "python3", "-m", "venv", "--clear", b.VenvDir()); err != nil {
		return fmt.Errorf("create venv: %w", err)
	}

	logger.Info(ctx, "Installing declared dependencies")

	requirements := filepath.Join(b.Dir, requirementsFilename)
	if err := b.Runner.Run(ctx, b.PipPath(), "install", "-r", requirements); err != nil {
		return fmt.Errorf("install requirements: %w", err)
	}

	logger.InfoKV(ctx, "Installing hardware interface packages", "packages", HardwarePackages())

	args := append([]string{"install"}, HardwarePackages()...)
	if err := b.Runner.Run(ctx, b.PipPath(), args...); err != nil {
		return fmt.Errorf("install hardware packages: %w", err)
	}

	return nil
}

// VenvDir returns the virtual environment directory path.
func (b Builder) VenvDir() string {
	return filepath.Join(b.Dir, venvDirName)
}

// PythonPath returns the interpreter path inside the virtual environment,
// used as the ExecStart interpreter in the generated unit.
func (b Builder) PythonPath() string {
	return filepath.Join(b.VenvDir(), "bin", "python")
}

// PipPath returns the pip executable path inside the virtual environment.
func (b Builder) PipPath() string {
	return filepath.Join(b.VenvDir(), "bin", "pip")
}
