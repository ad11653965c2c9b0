package assets

import (
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/einkpi/einkpi-setup/internal/config"
	"github.com/einkpi/einkpi-setup/internal/logger"

	// Ensure SHA512 is available for pinned driver checksums.
	_ "crypto/sha512"
)

const (
	// DriverDirName holds the e-paper driver files inside the install dir.
	DriverDirName = "waveshare_epd"

	// UploadsDirName is the application's photo upload directory.
	UploadsDirName = "uploads"

	// ConfigFilename is the application's runtime configuration.
	ConfigFilename = "config.json"

	// ExampleConfigFilename ships with the application repository and
	// seeds ConfigFilename on first install.
	ExampleConfigFilename = "config.example.json"

	// driverFileMode is applied to downloaded driver files.
	driverFileMode os.FileMode = 0o644

	// checksumHash is used when a driver checksum is pinned in settings.
	checksumHash = crypto.SHA512
)

var (
	// errBadHTTPStatus is returned for non-200 download responses.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errExampleConfigMissing indicates the application repository does not
	// carry its bundled example configuration.
	errExampleConfigMissing = errors.New("example configuration not found in checkout")
)

// DriverFiles is the minimal driver subset needed for the 7.5" V2 panel,
// fetched file by file to avoid cloning the multi-hundred-megabyte
// upstream e-Paper repository.
func DriverFiles() []string {
	return []string{
		"__init__.py",
		"epdconfig.py",
		"epd7in5_V2.py",
	}
}

// Fetcher converges the on-disk asset state of an install directory:
// driver files, seeded configuration and the uploads directory.
type Fetcher struct {
	// InstallDir is the application checkout.
	InstallDir string
	// BaseURL is the raw-content tree the driver files live under.
	BaseURL string
	// Client is the HTTP client for downloads; http.DefaultClient when nil.
	Client *http.Client
	// Checksums optionally pins base64-encoded SHA-512 sums per driver
	// file; files without a pin are applied unverified.
	Checksums map[string]string
}

// DriverDir returns the driver directory inside the install dir.
func (f Fetcher) DriverDir() string {
	return filepath.Join(f.InstallDir, DriverDirName)
}

// EnsureDrivers checks every expected driver file individually and downloads
// only the missing or empty ones. Gating on each file, not on the directory,
// means an interrupted download is retried on the next run.
func (f Fetcher) EnsureDrivers(ctx context.Context) (fetched []string, err error) {
	if err := os.MkdirAll(f.DriverDir(), config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create driver directory: %w", err)
	}

	for _, name := range DriverFiles() {
		target := filepath.Join(f.DriverDir(), name)
		if fileComplete(target) {
			logger.DebugKV(ctx, "Driver file already present", "file", name)
			continue
		}

		logger.InfoKV(ctx, "Downloading driver file", "file", name)

		if err := f.downloadDriver(ctx, name, target); err != nil {
			return fetched, fmt.Errorf("driver file %s: %w", name, err)
		}

		fetched = append(fetched, name)
	}

	return fetched, nil
}

// downloadDriver fetches one driver file and applies it atomically,
// verifying a pinned checksum when settings provide one.
func (f Fetcher) downloadDriver(ctx context.Context, name, target string) error {
	body, err := f.get(ctx, name)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: driverFileMode,
	}

	if pinned, ok := f.Checksums[name]; ok {
		checksum, err := base64.StdEncoding.DecodeString(pinned)
		if err != nil {
			return fmt.Errorf("decode pinned checksum: %w", err)
		}

		options.Checksum = checksum
		options.Hash = checksumHash
	}

	if _, err := os.Stat(target); err != nil && os.IsNotExist(err) {
		created, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("create target: %w", err)
		}

		if err := created.Close(); err != nil {
			return fmt.Errorf("close target: %w", err)
		}
	}

	if err := goupdate.Apply(body, options); err != nil {
		return fmt.Errorf("apply download: %w", err)
	}

	// go-update keeps the replaced file around; drop it.
	oldTarget := target + ".old"
	if _, err := os.Stat(oldTarget); err == nil {
		_ = os.Remove(oldTarget)
	}

	return nil
}

// get fetches a file from the raw-content tree.
func (f Fetcher) get(ctx context.Context, name string) (io.ReadCloser, error) {
	base, err := url.Parse(f.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	base.Path = path.Join(base.Path, name)
	finalURL := base.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response.Body, nil
}

// EnsureConfig seeds config.json from the bundled example on first install.
// An existing config.json is never touched, whatever its contents.
func (f Fetcher) EnsureConfig(ctx context.Context) error {
	target := filepath.Join(f.InstallDir, ConfigFilename)
	if _, err := os.Stat(target); err == nil {
		logger.Debug(ctx, "Configuration already present, leaving it alone")
		return nil
	}

	example := filepath.Join(f.InstallDir, ExampleConfigFilename)

	contents, err := os.ReadFile(filepath.Clean(example))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errExampleConfigMissing, example)
		}

		return fmt.Errorf("read example configuration: %w", err)
	}

	logger.InfoKV(ctx, "Seeding configuration from example", "file", ConfigFilename)

	if err := os.WriteFile(target, contents, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("seed configuration: %w", err)
	}

	return nil
}

// EnsureUploads creates the uploads directory when absent.
func (f Fetcher) EnsureUploads(_ context.Context) error {
	dir := filepath.Join(f.InstallDir, UploadsDirName)
	if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create uploads directory: %w", err)
	}

	return nil
}

// Complete reports whether every expected driver file is present and
// non-empty. The status command uses it for its convergence report.
func (f Fetcher) Complete() bool {
	for _, name := range DriverFiles() {
		if !fileComplete(filepath.Join(f.DriverDir(), name)) {
			return false
		}
	}

	return true
}

// fileComplete treats a present, non-empty regular file as done.
// A zero-byte file is a truncated download and gets re-fetched.
func fileComplete(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
