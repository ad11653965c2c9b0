package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the provisioning parameters for a single host.
// Every field has a sensible default, so a missing settings file
// provisions a stock EinkPi install.
type Config struct {
	// InstallDir is where the application repository is cloned.
	// Defaults to "einkpi" under the invoking user's home directory.
	InstallDir string `yaml:"install_dir"`
	// RepoURL is the git remote the application is fetched from.
	RepoURL string `yaml:"repo_url"`
	// Branch is the branch checked out and pulled on re-runs.
	Branch string `yaml:"branch"`
	// ServiceName is the systemd unit name (without the .service suffix).
	ServiceName string `yaml:"service_name"`
	// HTTPPort is the port the provisioned web UI listens on,
	// used only for the final summary line.
	HTTPPort int `yaml:"http_port"`
	// DriverBaseURL is the raw-content base the waveshare driver
	// files are fetched from. Override to point at a mirror.
	DriverBaseURL string `yaml:"driver_base_url"`
	// DriverChecksums optionally pins base64-encoded SHA-512 sums per
	// driver file. Files without a pin are downloaded unverified.
	DriverChecksums map[string]string `yaml:"driver_checksums,omitempty"`
	// CommandTimeout bounds each external command and download.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for provisioner settings.
	DefaultConfigFilename = "einkpi-setup.yaml"

	// DefaultRepoURL is the upstream application repository.
	DefaultRepoURL = "https://github.com/einkpi/einkpi.git"

	// DefaultBranch is checked out when no branch is configured.
	DefaultBranch = "main"

	// DefaultServiceName names the installed systemd unit.
	DefaultServiceName = "einkpi"

	// DefaultHTTPPort is the port the application web UI listens on.
	DefaultHTTPPort = 8080

	// DefaultDriverBaseURL is the raw-content tree holding the
	// waveshare e-paper driver files.
	DefaultDriverBaseURL = "https://raw.githubusercontent.com/waveshareteam/e-Paper/master/RaspberryPi_JetsonNano/python/lib/waveshare_epd"

	// DefaultCommandTimeout bounds each external command invocation.
	// Package installation on a first run can legitimately take minutes.
	DefaultCommandTimeout = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is the default permission for created directories.
	DefaultDirPermissions = 0o755
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidPort is returned when the HTTP port is out of range.
	errInvalidPort = errors.New("http port must be between 1 and 65535")
)

// Default returns a configuration populated with stock values.
// InstallDir is resolved against the invoking user's home directory.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	return &Config{
		InstallDir:     filepath.Join(home, "einkpi"),
		RepoURL:        DefaultRepoURL,
		Branch:         DefaultBranch,
		ServiceName:    DefaultServiceName,
		HTTPPort:       DefaultHTTPPort,
		DriverBaseURL:  DefaultDriverBaseURL,
		CommandTimeout: DefaultCommandTimeout,
	}, nil
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the defaults describe a stock install.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for anything left empty.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	defaults, err := Default()
	if err != nil {
		return err
	}

	if cfg.InstallDir == "" {
		cfg.InstallDir = defaults.InstallDir
	}

	if cfg.RepoURL == "" {
		cfg.RepoURL = defaults.RepoURL
	}

	if _, err := url.ParseRequestURI(cfg.RepoURL); err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}

	if cfg.Branch == "" {
		cfg.Branch = defaults.Branch
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = defaults.ServiceName
	}

	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = defaults.HTTPPort
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return errInvalidPort
	}

	if cfg.DriverBaseURL == "" {
		cfg.DriverBaseURL = defaults.DriverBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.DriverBaseURL); err != nil {
		return fmt.Errorf("invalid driver base URL: %w", err)
	}

	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaults.CommandTimeout
	}

	return nil
}
