package provision

import (
	"context"

	"github.com/einkpi/einkpi-setup/internal/assets"
	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system/apt"
	"github.com/einkpi/einkpi-setup/internal/system/bootconfig"
	"github.com/einkpi/einkpi-setup/internal/system/gitrepo"
	"github.com/einkpi/einkpi-setup/internal/system/pyenv"
	"github.com/einkpi/einkpi-setup/internal/systemd"
)

// step is one stage of the pipeline. Each run function converges its part
// of the host state and is safe to execute again after any failure.
type step struct {
	// name is the stable identifier reported in structured results.
	name string
	// title is the human-readable progress line.
	title string
	run   func(ctx context.Context) error
}

// StepResult is the structured outcome of one executed step.
type StepResult struct {
	Name string
	Err  error
}

// steps returns the pipeline in execution order.
func (p *provisioner) steps() []step {
	return []step{
		{name: "packages", title: "Installing OS packages", run: p.installPackages},
		{name: "spi", title: "Enabling SPI interface", run: p.enableSPI},
		{name: "source", title: "Fetching application source", run: p.fetchSource},
		{name: "venv", title: "Building Python environment", run: p.buildEnvironment},
		{name: "assets", title: "Converging drivers, config and uploads", run: p.convergeAssets},
		{name: "service", title: "Registering systemd service", run: p.registerService},
	}
}

func (p *provisioner) installPackages(ctx context.Context) error {
	return apt.Installer{Runner: p.exec}.EnsureInstalled(ctx)
}

func (p *provisioner) enableSPI(ctx context.Context) error {
	enabler := bootconfig.Enabler{Runner: p.exec}

	// A dry run on a development machine has no boot firmware config;
	// preview the step instead of aborting the remaining pipeline.
	if p.dryRun {
		if _, err := enabler.Locate(); err != nil {
			logger.Infof(ctx, "[dry-run] no boot config on this host; would ensure %q in it", bootconfig.SPILine)
			return nil
		}
	}

	rebootNeeded, err := enabler.EnsureSPI(ctx)
	if err != nil {
		return err
	}

	p.rebootNeeded = rebootNeeded

	return nil
}

func (p *provisioner) fetchSource(ctx context.Context) error {
	syncer := gitrepo.Syncer{
		Runner: p.exec,
		URL:    p.cfg.RepoURL,
		Branch: p.cfg.Branch,
		Dir:    p.cfg.InstallDir,
	}

	cloned, err := syncer.Ensure(ctx)
	if err != nil {
		return err
	}

	if cloned {
		logger.InfoKV(ctx, "Fresh checkout created", "dir", p.cfg.InstallDir)
	}

	return nil
}

func (p *provisioner) buildEnvironment(ctx context.Context) error {
	return pyenv.Builder{Runner: p.exec, Dir: p.cfg.InstallDir}.Build(ctx)
}

func (p *provisioner) convergeAssets(ctx context.Context) error {
	if p.dryRun {
		logger.Infof(ctx, "[dry-run] would converge %s/, %s and %s/ under %s",
			assets.DriverDirName, assets.ConfigFilename, assets.UploadsDirName, p.cfg.InstallDir)

		return nil
	}

	fetcher := assets.Fetcher{
		InstallDir: p.cfg.InstallDir,
		BaseURL:    p.cfg.DriverBaseURL,
		Checksums:  p.cfg.DriverChecksums,
	}

	fetched, err := fetcher.EnsureDrivers(ctx)
	if err != nil {
		return err
	}

	if len(fetched) > 0 {
		logger.InfoKV(ctx, "Downloaded driver files", "files", fetched)
	}

	if err := fetcher.EnsureConfig(ctx); err != nil {
		return err
	}

	return fetcher.EnsureUploads(ctx)
}

func (p *provisioner) registerService(ctx context.Context) error {
	builder := pyenv.Builder{Dir: p.cfg.InstallDir}

	content, err := systemd.RenderUnit(systemd.UnitParams{
		User:       p.username,
		WorkingDir: p.cfg.InstallDir,
		PythonPath: builder.PythonPath(),
	})
	if err != nil {
		return err
	}

	installer := systemd.Installer{Runner: p.exec, Manager: p.manager}

	return installer.Install(ctx, p.cfg.ServiceName, content)
}
