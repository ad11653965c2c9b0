package bootconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/einkpi/einkpi-setup/internal/logger"
	"github.com/einkpi/einkpi-setup/internal/system"
)

// SPILine is the directive enabling the SPI kernel interface at boot.
const SPILine = "dtparam=spi=on"

// ErrNoBootConfig indicates that no boot firmware config file exists at any
// known location. This host is not a Raspberry Pi (or the firmware layout is
// unknown), so the provisioner aborts instead of silently skipping SPI.
var ErrNoBootConfig = errors.New("boot firmware config not found")

// DefaultCandidates returns the boot config locations in probing order.
// Newer Raspberry Pi OS releases mount the firmware partition at
// /boot/firmware; older ones expose it directly under /boot.
func DefaultCandidates() []string {
	return []string{
		"/boot/firmware/config.txt",
		"/boot/config.txt",
	}
}

// Enabler performs the idempotent SPI enablement in the boot firmware config.
type Enabler struct {
	// Runner executes the privileged append; the config file is root-owned.
	Runner system.Runner
	// Candidates overrides the probed config locations (used in tests).
	Candidates []string
}

// Locate returns the first existing candidate path.
func (e Enabler) Locate() (string, error) {
	candidates := e.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrNoBootConfig, strings.Join(candidates, ", "))
}

// EnsureSPI checks whether the SPI directive is already present in the boot
// config and appends it when absent. It reports whether a reboot is now
// required; the caller surfaces that to the user, nothing reboots the host.
func (e Enabler) EnsureSPI(ctx context.Context) (rebootNeeded bool, err error) {
	path, err := e.Locate()
	if err != nil {
		return false, err
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, fmt.Errorf("read boot config: %w", err)
	}

	if ContainsLine(string(contents), SPILine) {
		logger.InfoKV(ctx, "SPI already enabled", "path", path)
		return false, nil
	}

	logger.InfoKV(ctx, "Enabling SPI in boot config", "path", path)

	// A config whose last line lacks a trailing newline would glue the
	// directive onto that line; start the payload with one in that case.
	format := "printf '%%s\\n' %q >> %q"
	if len(contents) > 0 && contents[len(contents)-1] != '\n' {
		format = "printf '\\n%%s\\n' %q >> %q"
	}

	// The file is root-owned; append through the runner so sudo applies.
	name, args := system.Elevate("sh", "-c", fmt.Sprintf(format, SPILine, path))
	if err := e.Runner.Run(ctx, name, args...); err != nil {
		return false, fmt.Errorf("append SPI directive: %w", err)
	}

	return true, nil
}

// ContainsLine reports whether content holds line as an exact trimmed line.
// Substring matches (e.g. a commented-out "#dtparam=spi=on") do not count.
func ContainsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}

	return false
}
