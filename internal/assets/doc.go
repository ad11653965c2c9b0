// Package assets converges the on-disk asset state of an EinkPi install:
// the waveshare e-paper driver files (downloaded individually and verified
// per file), the seeded config.json and the uploads directory.
package assets
