// Package version exposes the build version string.
package version

// Version is the current release. Overridden at build time via
// -ldflags "-X orbitcmd/pkg/version.Version=...".
var Version = "0.3.1"
