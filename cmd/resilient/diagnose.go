package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"resilient/internal/diag"
	"resilient/internal/diagfmt"
	"resilient/internal/driver"
	"resilient/internal/source"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <file.rsl|directory>",
	Short: "Report lexical, syntax and type errors without running",
	Long: `diag runs the front end (lexer, parser and type checker) over a file
or every *.rsl file under a directory and reports what it finds.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	diagCmd.Flags().String("stages", "all", "diagnostic stages to run (tokenize|syntax|sema|all)")
	diagCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("disk-cache", false, "reuse diagnostics of unchanged files from the user cache dir")
	diagCmd.Flags().Bool("clear-cache", false, "drop the disk cache before running")
	diagCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
}

// diagRequest is the parsed diag command line.
type diagRequest struct {
	format    string
	withNotes bool
	jobs      int
	ui        uiMode
	opts      driver.DiagnoseOptions
	out       outputSettings
}

func readDiagRequest(cmd *cobra.Command) (diagRequest, error) {
	var req diagRequest
	var err error
	flags := cmd.Flags()

	if req.format, err = flags.GetString("format"); err != nil {
		return req, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch req.format {
	case "pretty", "json", "short":
	default:
		return req, fmt.Errorf("unknown format: %s", req.format)
	}
	stagesStr, err := flags.GetString("stages")
	if err != nil {
		return req, fmt.Errorf("failed to get stages flag: %w", err)
	}
	if req.opts.Stage, err = driver.ParseStage(stagesStr); err != nil {
		return req, err
	}
	if req.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return req, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if req.jobs, err = flags.GetInt("jobs"); err != nil {
		return req, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return req, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if req.ui, err = readUIMode(uiStr); err != nil {
		return req, err
	}

	useCache, err := flags.GetBool("disk-cache")
	if err != nil {
		return req, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	clearCache, err := flags.GetBool("clear-cache")
	if err != nil {
		return req, fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if useCache || clearCache {
		cache, err := driver.OpenDiskCache("resilient")
		if err != nil {
			return req, fmt.Errorf("failed to open disk cache: %w", err)
		}
		if clearCache {
			if err := cache.DropAll(); err != nil {
				return req, fmt.Errorf("failed to clear disk cache: %w", err)
			}
		}
		if useCache {
			req.opts.Cache = cache
		}
	}

	if req.out, err = readOutputSettings(cmd, os.Stdout); err != nil {
		return req, err
	}
	req.opts.MaxDiagnostics = req.out.maxDiagnostics
	req.opts.EnableTimings = req.out.timings
	return req, nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	path := args[0]
	req, err := readDiagRequest(cmd)
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	var hasErrors bool
	if st.IsDir() {
		hasErrors, err = diagnoseDir(cmd, path, req)
	} else {
		hasErrors, err = diagnoseOne(cmd, path, req)
	}
	if err != nil {
		return err
	}
	if hasErrors {
		return exitCodeError{code: 1}
	}
	return nil
}

func diagnoseOne(cmd *cobra.Command, path string, req diagRequest) (bool, error) {
	res, err := driver.Diagnose(cmd.Context(), path, req.opts)
	if err != nil {
		return false, fmt.Errorf("diagnosis failed: %w", err)
	}
	w := cmd.OutOrStdout()
	switch req.format {
	case "pretty":
		if err := diagfmt.PrettyBag(w, res.Bag, res.FileSet, req.out.pretty(req.withNotes)); err != nil {
			return false, err
		}
		if res.Cached && !req.out.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "(from cache)")
		}
	case "json":
		if err := diagfmt.JSON(w, res.Bag.Items(), res.FileSet, req.out.json(req.withNotes)); err != nil {
			return false, fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "short":
		writeShort(w, res.Bag.Items(), res.FileSet, req.withNotes)
	}
	if req.out.timings {
		printTimings(cmd.ErrOrStderr(), res.Timing)
	}
	return res.HasErrors(), nil
}

func diagnoseDir(cmd *cobra.Command, dir string, req diagRequest) (bool, error) {
	var (
		fs      *source.FileSet
		results []driver.DiagnoseDirResult
		err     error
	)
	if shouldUseTUI(req.ui) && req.format == "pretty" && !req.out.quiet {
		fs, results, err = runDiagnoseDirWithUI(cmd.Context(), dir, req.opts, req.jobs)
	} else {
		fs, results, err = driver.DiagnoseDir(cmd.Context(), dir, req.opts, req.jobs, nil)
	}
	if err != nil {
		return false, fmt.Errorf("diagnosis failed: %w", err)
	}

	w := cmd.OutOrStdout()
	hasErrors := false
	for _, r := range results {
		if r.Err != nil || r.Result.HasErrors() {
			hasErrors = true
		}
	}

	switch req.format {
	case "pretty":
		for idx, r := range results {
			if idx > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s ==\n", displayPath(fs, r))
			if r.Err != nil {
				fmt.Fprintf(w, "error: %v\n", r.Err)
				continue
			}
			if err := diagfmt.PrettyBag(w, r.Result.Bag, fs, req.out.pretty(req.withNotes)); err != nil {
				return hasErrors, err
			}
			if req.out.timings {
				printTimings(w, r.Result.Timing)
			}
		}
	case "json":
		output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
		for _, r := range results {
			if r.Result == nil {
				continue
			}
			output[displayPath(fs, r)] = diagfmt.BuildDiagnosticsOutput(r.Result.Bag.Items(), fs, req.out.json(req.withNotes))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			return hasErrors, fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	case "short":
		var all []diag.Diagnostic
		for _, r := range results {
			if r.Result != nil {
				all = append(all, r.Result.Bag.Items()...)
			}
		}
		writeShort(w, all, fs, req.withNotes)
	}
	return hasErrors, nil
}

func displayPath(fs *source.FileSet, r driver.DiagnoseDirResult) string {
	if r.Result == nil || r.Result.File == nil {
		return r.Path
	}
	return r.Result.File.FormatPath("relative", fs.BaseDir())
}

func writeShort(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, withNotes bool) {
	if output := diag.FormatShortDiagnostics(diags, fs, withNotes); output != "" {
		fmt.Fprintln(w, output)
	}
}
