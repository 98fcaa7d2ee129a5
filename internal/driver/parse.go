package driver

import (
	"context"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Builder *ast.Builder
	FileID  ast.FileID
	Bag     *diag.Bag
	Errors  int
}

// Parse lexes and parses a file from disk without type checking.
func Parse(ctx context.Context, path string, maxDiagnostics int) (*ParseResult, error) {
	res, err := Diagnose(ctx, path, DiagnoseOptions{Stage: DiagnoseStageSyntax, MaxDiagnostics: maxDiagnostics})
	if err != nil {
		return nil, err
	}
	return &ParseResult{
		FileSet: res.FileSet,
		File:    res.File,
		Builder: res.Builder,
		FileID:  res.FileID,
		Bag:     res.Bag,
		Errors:  res.SyntaxErrors,
	}, nil
}
