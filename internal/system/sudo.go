package system

import "os"

// geteuid is replaceable in tests.
//
//nolint:gochecknoglobals // Test seam for privilege detection.
var geteuid = os.Geteuid

// Elevate prepends sudo to the command when the current process does not
// already run as root. Commands mutating OS package state, the boot firmware
// config, or systemd need this; everything else runs as the invoking user.
func Elevate(name string, args ...string) (string, []string) {
	if geteuid() == 0 {
		return name, args
	}

	return "sudo", append([]string{name}, args...)
}
