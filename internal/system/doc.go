// Package system provides the host-level primitives shared by provisioning
// steps: a Runner interface around external commands (with real, dry-run and
// test implementations), sudo escalation for privileged commands, and
// primary-IP detection for the final summary.
package system
