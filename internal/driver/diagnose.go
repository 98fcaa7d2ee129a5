package driver

import (
	"context"
	"fmt"
	"strings"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/observ"
	"resilient/internal/sema"
	"resilient/internal/source"
	"resilient/internal/trace"
)

// DiagnoseStage selects how far the front end runs.
type DiagnoseStage string

const (
	DiagnoseStageTokenize DiagnoseStage = "tokenize"
	DiagnoseStageSyntax   DiagnoseStage = "syntax"
	DiagnoseStageSema     DiagnoseStage = "sema"
)

// ParseStage parses a --stage flag value.
func ParseStage(s string) (DiagnoseStage, error) {
	switch DiagnoseStage(strings.ToLower(strings.TrimSpace(s))) {
	case DiagnoseStageTokenize:
		return DiagnoseStageTokenize, nil
	case DiagnoseStageSyntax:
		return DiagnoseStageSyntax, nil
	case "", DiagnoseStageSema, "all":
		return DiagnoseStageSema, nil
	}
	return "", fmt.Errorf("unknown stage %q (expected tokenize|syntax|sema)", s)
}

// DiagnoseOptions configures Diagnose and DiagnoseDir.
type DiagnoseOptions struct {
	Stage          DiagnoseStage
	MaxDiagnostics int
	EnableTimings  bool
	// Cache, when set, serves and stores diagnostics by content hash.
	Cache   *DiskCache
	OnPhase PhaseObserver
}

// DiagnoseResult is the front-end outcome for one file. Builder and Sema
// are nil for cached results and for the tokenize stage.
type DiagnoseResult struct {
	FileSet      *source.FileSet
	File         *source.File
	FileID       ast.FileID
	Bag          *diag.Bag
	Builder      *ast.Builder
	Sema         *sema.Result
	SyntaxErrors int
	TypeErrors   int
	Timing       *observ.Report
	Cached       bool
}

// HasErrors reports whether any front-end phase failed.
func (r *DiagnoseResult) HasErrors() bool {
	return r.SyntaxErrors > 0 || r.TypeErrors > 0
}

// Diagnose runs the front end on path up to opts.Stage.
func Diagnose(ctx context.Context, path string, opts DiagnoseOptions) (*DiagnoseResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return diagnoseFile(ctx, fs, fs.Get(id), opts), nil
}

// diagnoseFile consults the cache before running the front end and stores
// the fresh result afterwards. Cache failures only cost a recomputation.
func diagnoseFile(ctx context.Context, fs *source.FileSet, sf *source.File, opts DiagnoseOptions) *DiagnoseResult {
	if opts.Stage == "" {
		opts.Stage = DiagnoseStageSema
	}
	key := CacheKey(sf.Hash, opts.Stage)
	if opts.Cache != nil {
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
			if res := payload.restore(fs, sf, opts.MaxDiagnostics); res != nil {
				trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache.hit", trace.CurrentSpan(ctx).SpanID, sf.Path, nil)
				return res
			}
		}
	}

	p := newPipeline(ctx, opts.EnableTimings, opts.OnPhase)
	res := p.frontEnd(fs, sf, opts.Stage, opts.MaxDiagnostics)
	res.Timing = p.report()

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, newDiskPayload(sf.Path, opts.Stage, res)); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache.error", trace.CurrentSpan(ctx).SpanID, err.Error(), nil)
		}
	}
	return res
}
