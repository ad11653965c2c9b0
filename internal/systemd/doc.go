// Package systemd renders and installs the supervision unit for the display
// service and drives the supervisor either directly over D-Bus (go-systemd)
// or through systemctl when the system bus is unavailable.
package systemd
