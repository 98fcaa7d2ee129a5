package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resilient/internal/diagfmt"
	"resilient/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.rsl",
	Short: "Print the token stream of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	out, err := readOutputSettings(cmd, os.Stderr)
	if err != nil {
		return err
	}

	result, err := driver.Tokenize(args[0], out.maxDiagnostics)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	if result.Bag.Len() > 0 {
		if err := diagfmt.PrettyBag(cmd.ErrOrStderr(), result.Bag, result.FileSet, out.pretty(false)); err != nil {
			return err
		}
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), result.Tokens, result.FileSet)
	case "json":
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), result.Tokens)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
