package provision

import (
	"fmt"
	"os"

	"github.com/einkpi/einkpi-setup/internal/system"
	"github.com/einkpi/einkpi-setup/internal/systemd"
)

// printSummary writes the end-of-run report: the web endpoint, operational
// hints and the conditional reboot notice.
func (p *provisioner) printSummary() {
	unit := systemd.UnitName(p.cfg.ServiceName)

	fmt.Println()
	fmt.Println("EinkPi is installed and running.")
	fmt.Printf("  Web UI:      http://%s:%d\n", system.PrimaryIP(), p.cfg.HTTPPort)
	fmt.Printf("  Install dir: %s\n", p.cfg.InstallDir)
	fmt.Printf("  Service:     systemctl status %s\n", unit)
	fmt.Printf("  Logs:        journalctl -u %s -f\n", unit)

	if p.rebootNeeded {
		fmt.Println()
		fmt.Println("SPI was just enabled in the boot config: reboot before the display will work.")
	}
}

// printFailure reports which step failed and how far the run got.
// Completed state stays on disk; re-running converges from where it stopped.
func (p *provisioner) printFailure(err error) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Provisioning aborted: %v\n", err)

	for _, result := range p.results {
		mark := "ok"
		if result.Err != nil {
			mark = "FAILED"
		}

		fmt.Fprintf(os.Stderr, "  %-10s %s\n", result.Name, mark)
	}

	fmt.Fprintln(os.Stderr, "Fix the cause and re-run einkpi-setup; completed steps converge to no-ops.")
}
