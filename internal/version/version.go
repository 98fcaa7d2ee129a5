package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the resilient CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each numeric component highlighted.
// Anything after the patch number (a pre-release tag) stays plain.
func Colored() string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	patch, rest := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, rest = patch[:i], patch[i:]
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(patch) + rest
}

// String is the full one-line description printed by `resilient version`.
func String() string {
	out := "resilient " + Colored()
	if GitCommit != "" {
		short := GitCommit
		if len(short) > 12 {
			short = short[:12]
		}
		out += fmt.Sprintf(" (%s)", short)
	}
	if BuildDate != "" {
		out += " built " + BuildDate
	}
	return out
}
