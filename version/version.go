// Package version holds the build version information.
package version

import "fmt"

var (
	// Version is the version of the current build.
	Version = "v0.1.0"

	// GitSHA is the git commit SHA of the current build.
	GitSHA = ""
)

// GetHumanVersion composes the version parts in a way that is suitable for
// displaying to humans.
func GetHumanVersion() string {
	version := Version
	if GitSHA != "" {
		version += fmt.Sprintf("-%s", GitSHA)
	}
	return version
}
