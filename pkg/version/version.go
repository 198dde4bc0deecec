// Package version holds the build version string.
package version

// Version is the current etv release. Overridden at build time with
// -ldflags "-X github.com/FelixZhang1020/epub-translator-sub000/pkg/version.Version=...".
var Version = "0.3.0"
