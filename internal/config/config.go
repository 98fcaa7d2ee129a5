// Package config loads resilient.toml project manifests.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest looked up by Find.
const FileName = "resilient.toml"

// SourceExt is the extension [run].main must carry when it names a file.
const SourceExt = ".rsl"

// Manifest is a loaded resilient.toml and the directory it lives in.
type Manifest struct {
	Path   string
	Root   string
	Config Config
	meta   toml.MetaData
}

type Config struct {
	Run  RunConfig  `toml:"run"`
	Live LiveConfig `toml:"live"`
	Diag DiagConfig `toml:"diag"`
}

type RunConfig struct {
	Main      string `toml:"main"`
	Entry     string `toml:"entry"`
	TypeCheck bool   `toml:"typecheck"`
}

type LiveConfig struct {
	MaxAttempts int `toml:"max_attempts"`
}

type DiagConfig struct {
	Max int `toml:"max"`
}

// Find walks up from startDir looking for resilient.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the manifest governing startDir. ok is false
// when there is none.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("run", "main") {
		main := strings.TrimSpace(cfg.Run.Main)
		if main == "" {
			return nil, fmt.Errorf("%s: empty [run].main", path)
		}
		if filepath.Ext(main) != SourceExt {
			return nil, fmt.Errorf("%s: [run].main must be a %s file", path, SourceExt)
		}
	}
	if meta.IsDefined("live", "max_attempts") && cfg.Live.MaxAttempts < 1 {
		return nil, fmt.Errorf("%s: [live].max_attempts must be at least 1, got %d", path, cfg.Live.MaxAttempts)
	}
	if meta.IsDefined("diag", "max") && cfg.Diag.Max < 0 {
		return nil, fmt.Errorf("%s: [diag].max must not be negative", path)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
		meta:   meta,
	}, nil
}

// IsDefined reports whether the manifest sets key, e.g. IsDefined("run", "typecheck").
// A nil manifest defines nothing.
func (m *Manifest) IsDefined(key ...string) bool {
	return m != nil && m.meta.IsDefined(key...)
}

// MainPath resolves [run].main against the manifest root.
func (m *Manifest) MainPath() (string, error) {
	if !m.IsDefined("run", "main") {
		return "", fmt.Errorf("%s: missing [run].main", m.Path)
	}
	mainPath := filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Run.Main)))
	info, err := os.Stat(mainPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: [run].main path does not exist: %s", m.Path, mainPath)
		}
		return "", fmt.Errorf("%s: failed to stat [run].main: %w", m.Path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: [run].main is a directory: %s", m.Path, mainPath)
	}
	return mainPath, nil
}
