package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), `
[run]
main = "src/main.rsl"
entry = "main"
typecheck = true

[live]
max_attempts = 5

[diag]
max = 20
`)
	write(t, filepath.Join(root, "src", "main.rsl"), "main(0);\n")
	deep := filepath.Join(root, "src", "deep", "er")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	m, ok, err := Discover(deep)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, "main", m.Config.Run.Entry)
	assert.True(t, m.Config.Run.TypeCheck)
	assert.Equal(t, 5, m.Config.Live.MaxAttempts)
	assert.Equal(t, 20, m.Config.Diag.Max)
	assert.True(t, m.IsDefined("live", "max_attempts"))

	mainPath, err := m.MainPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "main.rsl"), mainPath)
}

func TestDiscoverWithoutManifest(t *testing.T) {
	m, ok, err := Discover(t.TempDir())
	require.NoError(t, err)
	// a manifest in a parent of the temp dir would be found; only check consistency
	assert.Equal(t, ok, m != nil)
}

func TestPartialManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	write(t, path, "[live]\nmax_attempts = 2\n")
	m, err := Load(path)
	require.NoError(t, err)
	assert.False(t, m.IsDefined("run", "typecheck"))
	assert.False(t, m.IsDefined("diag", "max"))
	_, err = m.MainPath()
	assert.ErrorContains(t, err, "missing [run].main")

	var nilManifest *Manifest
	assert.False(t, nilManifest.IsDefined("run"))
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero attempts":  "[live]\nmax_attempts = 0\n",
		"bad main ext":   "[run]\nmain = \"main.go\"\n",
		"empty main":     "[run]\nmain = \" \"\n",
		"negative max":   "[diag]\nmax = -1\n",
		"unknown key":    "[live]\nretries = 3\n",
		"malformed toml": "[live\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			write(t, path, content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestMainPathMissingFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, FileName)
	write(t, path, "[run]\nmain = \"nope.rsl\"\n")
	m, err := Load(path)
	require.NoError(t, err)
	_, err = m.MainPath()
	assert.ErrorContains(t, err, "does not exist")
}
