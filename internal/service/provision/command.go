package provision

import (
	"context"
	"fmt"
	"os/user"

	"github.com/einkpi/einkpi-setup/internal/config"
	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
	"github.com/einkpi/einkpi-setup/internal/systemd"
)

// Options are inputs accepted by the provisioner entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// DryRun logs every mutating action instead of performing it.
	DryRun bool
}

// provisioner holds the state for a single provisioning run.
// It is intentionally unexported. Callers go through Run(ctx, Options).
type provisioner struct {
	cfg      *config.Config
	exec     system.Runner
	manager  systemd.Manager
	username string
	dryRun   bool

	// rebootNeeded is raised by the SPI step and only ever surfaced to
	// the user; the provisioner never reboots the host itself.
	rebootNeeded bool
	// results collects the structured per-step outcome of the run.
	results []StepResult
}

// Run executes the provisioning pipeline and is the public entry point for the CLI.
// Partial state left behind by a failed run is reconciled by re-running:
// every step is an idempotent convergence action, nothing is rolled back.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "einkpi-setup")

	p, err := newProvisioner(ctx, opts)
	if err != nil {
		return err
	}

	defer p.manager.Close()

	if err := p.run(ctx); err != nil {
		p.printFailure(err)
		return err
	}

	p.printSummary()

	return nil
}

// newProvisioner loads settings and wires the host-level dependencies.
func newProvisioner(ctx context.Context, opts *Options) (*provisioner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	var (
		exec    system.Runner
		manager systemd.Manager
	)

	if opts.DryRun {
		exec = system.DryRunner{}
		manager = systemd.SystemctlManager{Runner: exec}
	} else {
		exec = system.ExecRunner{Timeout: cfg.CommandTimeout}
		manager = systemd.NewManager(ctx, exec)
	}

	return &provisioner{
		cfg:      cfg,
		exec:     exec,
		manager:  manager,
		username: currentUser.Username,
		dryRun:   opts.DryRun,
	}, nil
}

// run walks the step pipeline in order, stopping at the first failure.
func (p *provisioner) run(ctx context.Context) error {
	return p.runSteps(ctx, p.steps())
}

// runSteps executes the given steps sequentially, recording a structured
// result per step and stopping at the first failure.
func (p *provisioner) runSteps(ctx context.Context, steps []step) error {
	for i, s := range steps {
		logger.Infof(ctx, "[%d/%d] %s", i+1, len(steps), s.title)

		if err := s.run(ctx); err != nil {
			p.results = append(p.results, StepResult{Name: s.name, Err: err})
			return fmt.Errorf("%s: %w", s.name, err)
		}

		p.results = append(p.results, StepResult{Name: s.name})
	}

	return nil
}

// Results returns the structured per-step outcome of the run so far.
func (p *provisioner) Results() []StepResult {
	return p.results
}
