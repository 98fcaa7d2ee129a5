package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resilient/internal/diagfmt"
	"resilient/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.rsl",
	Short: "Parse a source file and print its syntax tree",
	Long: `parse runs the resilient parser and prints the tree it recovered,
together with any lexical or syntax diagnostics on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	out, err := readOutputSettings(cmd, os.Stderr)
	if err != nil {
		return err
	}
	result, err := driver.Parse(cmd.Context(), args[0], out.maxDiagnostics)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	if result.Bag.Len() > 0 {
		if err := diagfmt.PrettyBag(cmd.ErrOrStderr(), result.Bag, result.FileSet, out.pretty(false)); err != nil {
			return err
		}
	}
	if err := diagfmt.FormatASTTree(cmd.OutOrStdout(), result.Builder, result.FileID, result.FileSet); err != nil {
		return err
	}
	if result.Errors > 0 {
		return exitCodeError{code: 1}
	}
	return nil
}
