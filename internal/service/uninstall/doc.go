// Package uninstall removes the service registration and, on request, the
// install directory. The boot-config SPI directive is left untouched.
package uninstall
