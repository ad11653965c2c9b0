// Package status implements the read-only doctor command: it mirrors the
// provisioning pipeline probe for probe and reports whether the host has
// fully converged, without mutating anything.
package status
