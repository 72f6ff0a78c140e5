// Package buildinfo contains build-time metadata injected at link time,
// kept separate from user configuration.
package buildinfo

import "fmt"

// Set via -ldflags at build time.
var (
	// Version holds the Git version tag from build.
	Version = "dev"

	// BuildDate is the time when the binary was built.
	BuildDate = "unknown"
)

// String returns the version line printed by the version flag.
func String() string {
	return fmt.Sprintf("modwatch %s (built %s)", Version, BuildDate)
}
