package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"resilient/internal/diagfmt"
	"resilient/internal/observ"
)

// outputSettings are the persistent flags every command formats with.
type outputSettings struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	pathMode       diagfmt.PathMode
}

func readOutputSettings(cmd *cobra.Command, w *os.File) (outputSettings, error) {
	flags := cmd.Root().PersistentFlags()
	var s outputSettings

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		s.color = true
	case "off":
	case "auto":
		s.color = isTerminal(w)
	default:
		return s, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}

	if s.quiet, err = flags.GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	modeStr, err := flags.GetString("path-mode")
	if err != nil {
		return s, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(modeStr)
	if !ok {
		return s, fmt.Errorf("invalid --path-mode value %q", modeStr)
	}
	s.pathMode = mode
	return s, nil
}

func (s outputSettings) pretty(withNotes bool) diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:     s.color,
		PathMode:  s.pathMode,
		ShowNotes: withNotes,
		Context:   1,
	}
}

func (s outputSettings) json(withNotes bool) diagfmt.JSONOpts {
	return diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         s.pathMode,
		IncludeNotes:     withNotes,
	}
}

func printTimings(w io.Writer, report *observ.Report) {
	if report == nil {
		return
	}
	fmt.Fprint(w, report.String())
}
