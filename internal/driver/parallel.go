package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"resilient/internal/buildpipeline"
	"resilient/internal/source"
	"resilient/internal/trace"
)

// SourceExt is the file extension of source files.
const SourceExt = ".rsl"

// DiagnoseDirResult is the outcome for one file of a directory diagnose.
type DiagnoseDirResult struct {
	Path   string
	Result *DiagnoseResult
	Err    error // load failure; Result is nil
}

// ListSourceFiles returns the sorted *.rsl files under dir.
func ListSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// deterministic order
	sort.Strings(files)
	return files, nil
}

// DiagnoseDir runs an independent front-end pipeline for every source file
// under dir, at most jobs at a time. Progress goes to sink when set.
func DiagnoseDir(ctx context.Context, dir string, opts DiagnoseOptions, jobs int, sink buildpipeline.ProgressSink) (*source.FileSet, []DiagnoseDirResult, error) {
	files, err := ListSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	fileSet := source.NewFileSet()
	fileSet.SetBaseDir(dir)
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	// the FileSet is filled up front and only read by the workers
	results := make([]DiagnoseDirResult, len(files))
	loaded := make([]*source.File, len(files))
	for i, path := range files {
		results[i].Path = path
		id, loadErr := fileSet.Load(path)
		if loadErr != nil {
			results[i].Err = loadErr
			continue
		}
		loaded[i] = fileSet.Get(id)
		buildpipeline.Emit(sink, buildpipeline.Event{File: path, Stage: buildpipeline.StageParse, Status: buildpipeline.StatusQueued})
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "diagnose_dir", trace.CurrentSpan(ctx).SpanID).WithExtra("dir", dir)
	defer root.End("")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range files {
		if loaded[i] == nil {
			buildpipeline.Emit(sink, buildpipeline.Event{File: files[i], Status: buildpipeline.StatusError, Err: results[i].Err})
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sf, path := loaded[i], files[i]
			span := trace.Begin(tracer, trace.ScopeFile, "file", root.ID()).WithExtra("path", sf.Path)
			fctx := trace.WithSpanContext(gctx, trace.SpanContext{SpanID: span.ID()})

			start := time.Now()
			fileOpts := opts
			fileOpts.OnPhase = func(ev PhaseEvent) {
				if ev.Status != PhaseStart {
					return
				}
				stage := buildpipeline.StageParse
				if ev.Name == "sema" {
					stage = buildpipeline.StageCheck
				}
				buildpipeline.Emit(sink, buildpipeline.Event{File: path, Stage: stage, Status: buildpipeline.StatusWorking})
			}
			res := diagnoseFile(fctx, fileSet, sf, fileOpts)
			results[i].Result = res

			status := buildpipeline.StatusDone
			switch {
			case res.HasErrors():
				status = buildpipeline.StatusError
			case res.Cached:
				status = buildpipeline.StatusCached
			}
			buildpipeline.Emit(sink, buildpipeline.Event{File: path, Status: status, Elapsed: time.Since(start)})
			span.WithExtra("diags", strconv.Itoa(res.Bag.Len())).End(string(status))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
