package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"resilient/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "resilient",
	Short: "Resilient language interpreter and tooling",
	Long: `resilient runs programs whose live blocks retry failed work
and keep going, and inspects them with tokenize, parse and diag.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopProfiles, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		profileCleanup = stopProfiles
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
}

// traceCleanup and profileCleanup run after Execute so they also happen
// when a command fails.
var (
	traceCleanup   = func() {}
	profileCleanup = func() {}
)

// exitCodeError carries a process exit code out of a command whose output
// has already been written.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd.PersistentFlags())

	err := rootCmd.Execute()
	traceCleanup()
	profileCleanup()
	if err != nil {
		var exit exitCodeError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func registerPersistentFlags(fs *pflag.FlagSet) {
	fs.String("color", "auto", "colorize output (auto|on|off)")
	fs.Bool("quiet", false, "suppress non-essential output")
	fs.Bool("timings", false, "show timing information")
	fs.Int("max-diagnostics", 100, "maximum number of diagnostics to keep")
	fs.String("path-mode", "auto", "how file paths are printed (auto|absolute|relative|basename)")

	fs.String("trace", "", "trace output file (- for stderr)")
	fs.String("trace-level", "off", "trace level (off|error|phase|detail|debug); error records silently and dumps on a fatal fault")
	fs.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	fs.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	fs.Duration("trace-heartbeat", time.Duration(0), "heartbeat interval while tracing (0 disables)")
	fs.Bool("trace-dump", false, "dump the trace ring to stderr when a run ends in a fatal fault")

	fs.String("cpu-profile", "", "write a CPU profile to file")
	fs.String("mem-profile", "", "write a heap profile to file on exit")
	fs.String("runtime-trace", "", "write a Go runtime trace to file")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
