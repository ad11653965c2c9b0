// Package config defines provisioning settings used by the einkpi-setup
// binary and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the install directory, the application repository
// URL, the systemd service name and the driver mirror base URL. A missing
// settings file is not an error: the defaults describe a stock install.
package config
