package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resilient/internal/config"
	"resilient/internal/diag"
	"resilient/internal/diagfmt"
	"resilient/internal/driver"
	"resilient/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [file.rsl]",
	Short: "Run a resilient program",
	Long: `Run lexes, parses, optionally type-checks and evaluates a program.
Without a file argument the [run].main of the nearest resilient.toml is used.

Statements that fail to parse are reported and skipped; the rest of the
program still runs.

Exit codes: 0 success, 1 the program ran but had syntax errors,
2 type errors, 3 runtime fatal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProgram,
}

func init() {
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("typecheck", false, "type-check before evaluating")
	cmd.Flags().Int("max-attempts", 3, "attempts per live block before it is abandoned")
	cmd.Flags().Int("max-call-depth", 0, "call depth that faults with stack overflow (0=default)")
	cmd.Flags().String("entry", "", "function called after the top-level statements")
	cmd.Flags().String("format", "pretty", "diagnostic format (pretty|json)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
}

// runSettings merges resilient.toml values with the run flags; a flag set
// on the command line always wins.
type runSettings struct {
	path         string
	typeCheck    bool
	maxAttempts  int
	maxCallDepth int
	entry        string
	maxDiag      int
}

func resolveRunSettings(cmd *cobra.Command, args []string, out outputSettings) (runSettings, error) {
	s := runSettings{maxDiag: out.maxDiagnostics}

	startDir := "."
	if len(args) == 1 {
		s.path = args[0]
		startDir = filepath.Dir(args[0])
	}
	manifest, found, err := config.Discover(startDir)
	if err != nil {
		return s, err
	}
	if s.path == "" {
		if !found {
			return s, fmt.Errorf("no file given and no %s found", config.FileName)
		}
		if s.path, err = manifest.MainPath(); err != nil {
			return s, err
		}
	}

	flags := cmd.Flags()
	if s.typeCheck, err = flags.GetBool("typecheck"); err != nil {
		return s, fmt.Errorf("failed to get typecheck flag: %w", err)
	}
	if s.maxAttempts, err = flags.GetInt("max-attempts"); err != nil {
		return s, fmt.Errorf("failed to get max-attempts flag: %w", err)
	}
	if s.maxCallDepth, err = flags.GetInt("max-call-depth"); err != nil {
		return s, fmt.Errorf("failed to get max-call-depth flag: %w", err)
	}
	if s.entry, err = flags.GetString("entry"); err != nil {
		return s, fmt.Errorf("failed to get entry flag: %w", err)
	}

	if manifest != nil {
		cfg := manifest.Config
		if !flags.Changed("typecheck") && manifest.IsDefined("run", "typecheck") {
			s.typeCheck = cfg.Run.TypeCheck
		}
		if !flags.Changed("max-attempts") && manifest.IsDefined("live", "max_attempts") {
			s.maxAttempts = cfg.Live.MaxAttempts
		}
		if !flags.Changed("entry") && manifest.IsDefined("run", "entry") {
			s.entry = cfg.Run.Entry
		}
		if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && manifest.IsDefined("diag", "max") {
			s.maxDiag = cfg.Diag.Max
		}
	}
	if s.maxAttempts < 1 {
		return s, fmt.Errorf("--max-attempts must be at least 1, got %d", s.maxAttempts)
	}
	return s, nil
}

func runProgram(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	out, err := readOutputSettings(cmd, os.Stderr)
	if err != nil {
		return err
	}
	settings, err := resolveRunSettings(cmd, args, out)
	if err != nil {
		return err
	}

	opts := driver.RunOptions{
		TypeCheck:      settings.typeCheck,
		MaxAttempts:    settings.maxAttempts,
		MaxCallDepth:   settings.maxCallDepth,
		Entry:          settings.entry,
		MaxDiagnostics: settings.maxDiag,
		Timings:        out.timings,
	}

	fs := source.NewFileSet()
	fileID, err := fs.Load(settings.path)
	if err != nil {
		return fmt.Errorf("load %s: %w", settings.path, err)
	}

	var sink *streamSink
	if format == "pretty" {
		// lines go to stdout and runtime diagnostics to stderr as they happen
		sink = &streamSink{stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr(), files: fs, opts: out.pretty(withNotes)}
		opts.Sink = sink
	}

	res := driver.RunLoaded(cmd.Context(), fs, fileID, opts)

	if format == "json" {
		payload := runPayload{
			DiagnosticsOutput: diagfmt.BuildDiagnosticsOutput(res.Diagnostics, res.FileSet, out.json(withNotes)),
			Output:            res.Lines(),
		}
		code := exitCode(res)
		payload.Status = res.Status.String()
		payload.ExitCode = &code
		if err := writeRunJSON(cmd.OutOrStdout(), payload); err != nil {
			return fmt.Errorf("failed to encode run output: %w", err)
		}
	} else {
		if err := sink.finish(res); err != nil {
			return fmt.Errorf("failed to write diagnostics: %w", err)
		}
		if !out.quiet && res.Status.Kind != driver.StatusSuccess {
			fmt.Fprintf(cmd.ErrOrStderr(), "status: %s\n", res.Status)
		}
	}

	if out.timings {
		printTimings(cmd.ErrOrStderr(), res.Timing)
	}
	if activeTrace.dumpOnFatal && res.Status.Kind == driver.StatusRuntimeFatal {
		if err := dumpTraceRing(cmd, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("failed to dump trace: %w", err)
		}
	}
	if code := exitCode(res); code != 0 {
		return exitCodeError{code: code}
	}
	return nil
}

// exitCode is the status code, except that a successful run of a program
// with dropped statements exits with 1.
func exitCode(res driver.RunResult) int {
	if code := res.Status.Code(); code != 0 || res.SyntaxErrors == 0 {
		return code
	}
	return 1
}

type runPayload struct {
	diagfmt.DiagnosticsOutput
	Output []string `json:"output"`
}

func writeRunJSON(w io.Writer, payload runPayload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// streamSink prints the effect stream in occurrence order. The sink
// interface has no error results, so the first write failure is kept in err
// and returned by finish.
type streamSink struct {
	stdout, stderr io.Writer
	files          *source.FileSet
	opts           diagfmt.PrettyOpts
	err            error
}

func (s *streamSink) keep(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *streamSink) Print(line string) {
	_, err := fmt.Fprintln(s.stdout, line)
	s.keep(err)
}

func (s *streamSink) Diagnostic(d diag.Diagnostic) {
	s.keep(diagfmt.Pretty(s.stderr, []diag.Diagnostic{d}, s.files, s.opts))
}

// finish prints what was not streamed and reports the first write error.
// Front-end diagnostics are streamed unless type checking stopped the run;
// the fatal fault always comes last with its backtrace notes.
func (s *streamSink) finish(res driver.RunResult) error {
	if res.Status.Kind == driver.StatusTypeCheckFailed {
		s.keep(diagfmt.Pretty(s.stderr, res.Diagnostics, s.files, s.opts))
	}
	if res.Fault != nil {
		opts := s.opts
		opts.ShowNotes = true
		s.keep(diagfmt.Pretty(s.stderr, res.Diagnostics[len(res.Diagnostics)-1:], s.files, opts))
	}
	return s.err
}
