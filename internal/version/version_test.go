package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate, origNoColor := Version, GitCommit, BuildDate, color.NoColor
	Version, GitCommit, BuildDate = v, commit, date
	color.NoColor = true
	t.Cleanup(func() {
		Version, GitCommit, BuildDate, color.NoColor = origVersion, origCommit, origDate, origNoColor
	})
}

func TestStringDefaults(t *testing.T) {
	withVersion(t, "0.1.0-dev", "", "")
	assert.Equal(t, "resilient 0.1.0-dev", String())
}

func TestStringWithBuildInfo(t *testing.T) {
	withVersion(t, "1.2.3", "1234567890abcdef1234", "2024-01-15T10:30:00Z")
	assert.Equal(t, "resilient 1.2.3 (1234567890ab) built 2024-01-15T10:30:00Z", String())
}

func TestColoredKeepsUnusualVersions(t *testing.T) {
	for _, v := range []string{"1.2.3-rc.1+build.123", "dev", "1.2"} {
		withVersion(t, v, "", "")
		assert.Equal(t, v, Colored())
	}
}
