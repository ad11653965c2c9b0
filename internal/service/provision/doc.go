// Package provision implements the staged provisioning pipeline that brings
// a Raspberry Pi host from bare OS to a running EinkPi display service:
// OS packages, SPI enablement, source checkout, Python environment, driver
// assets and systemd registration.
//
// Every step is an idempotent convergence action. A failed run leaves its
// partial state in place; re-running the pipeline is the only, and intended,
// recovery mechanism.
package provision
