package driver

import (
	"fmt"

	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/source"
	"resilient/internal/token"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes a file from disk; the token slice ends with EOF.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return TokenizeFile(fs, fs.Get(fileID), maxDiagnostics), nil
}

// TokenizeFile lexes a file already in fs.
func TokenizeFile(fs *source.FileSet, file *source.File, maxDiagnostics int) *TokenizeResult {
	bag := diag.NewBag(maxDiagnostics)
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return &TokenizeResult{
		FileSet: fs,
		File:    file,
		Tokens:  lx.All(),
		Bag:     bag,
	}
}
