package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilient/internal/buildpipeline"
	"resilient/internal/diag"
	"resilient/internal/trace"
	"resilient/internal/vm"
)

const negMain = `
fn neg(int d) { return -5; }
fn main(int d) {
	live {
		let v = neg(0);
		assert(v >= 0, "value must be non-negative");
	}
	println("recovered");
}
main(0);
`

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func TestRunAbandonedLiveBlockSucceeds(t *testing.T) {
	var out bytes.Buffer
	res := Run(context.Background(), negMain, RunOptions{TypeCheck: true, Stdout: &out})

	assert.Equal(t, StatusSuccess, res.Status.Kind)
	assert.Equal(t, 0, res.Status.Code())
	assert.Nil(t, res.Fault)
	assert.Equal(t, []diag.Code{
		diag.RunAssertionFailure,
		diag.RunAssertionFailure,
		diag.RunAssertionFailure,
		diag.RunLiveAbandoned,
	}, codes(res.Phase(diag.PhaseRuntime)))
	assert.Equal(t, "recovered\n", out.String())
	assert.Equal(t, []string{"recovered"}, res.Lines())
}

func TestRunAssertOutsideLiveIsFatal(t *testing.T) {
	res := Run(context.Background(), `println("start"); assert(false, "boom"); println("never");`, RunOptions{})
	assert.Equal(t, ExitStatus{Kind: StatusRuntimeFatal, Fault: diag.RunAssertionFailure}, res.Status)
	assert.Equal(t, 3, res.Status.Code())
	assert.Equal(t, "runtime fatal (RUN4001)", res.Status.String())
	assert.Equal(t, []string{"start"}, res.Lines())

	require.NotEmpty(t, res.Diagnostics)
	last := res.Diagnostics[len(res.Diagnostics)-1]
	assert.Equal(t, diag.RunAssertionFailure, last.Code)
	assert.Equal(t, diag.SevError, last.Severity)
}

func TestRunTypeCheckFailureSkipsEvaluation(t *testing.T) {
	res := Run(context.Background(), `let x = 1; x = "s"; println("ran");`, RunOptions{TypeCheck: true})
	assert.Equal(t, StatusTypeCheckFailed, res.Status.Kind)
	assert.Equal(t, 2, res.Status.Code())
	assert.Equal(t, []diag.Code{diag.SemaAssignType}, codes(res.Phase(diag.PhaseTypeCheck)))
	assert.Empty(t, res.Phase(diag.PhaseRuntime))
	assert.Empty(t, res.Effects)
}

func TestRunWithoutTypeCheckFaultsAtRuntime(t *testing.T) {
	res := Run(context.Background(), `let x = 1; x = "s";`, RunOptions{})
	assert.Equal(t, ExitStatus{Kind: StatusRuntimeFatal, Fault: diag.RunTypeMismatch}, res.Status)
	assert.Empty(t, res.Phase(diag.PhaseTypeCheck))
}

func TestRunEvaluatesRecoveredProgram(t *testing.T) {
	res := Run(context.Background(), "fn f() { }\nprintln(1);", RunOptions{TypeCheck: true})
	assert.Equal(t, StatusSuccess, res.Status.Kind)
	assert.Equal(t, 0, res.Status.Code())
	assert.Equal(t, 1, res.SyntaxErrors)
	assert.Equal(t, []diag.Code{diag.SynFnNoParams}, codes(res.Diagnostics))
	assert.Equal(t, []string{"1"}, res.Lines())
}

func TestRunPrintsAroundMalformedStatement(t *testing.T) {
	src := "println(\"before\");\nlet x = ;\nprintln(\"after\");\n"
	for _, typecheck := range []bool{false, true} {
		col := vm.NewRecorder(nil)
		res := Run(context.Background(), src, RunOptions{TypeCheck: typecheck, Sink: col})
		assert.Equal(t, StatusSuccess, res.Status.Kind)
		assert.Equal(t, []string{"before", "after"}, res.Lines())
		assert.Equal(t, []diag.Code{diag.SynExpectExpression}, codes(res.Diagnostics))

		// the parse diagnostic reaches the sink ahead of any output
		effects := col.Effects()
		require.Len(t, effects, 3)
		assert.Equal(t, vm.EffectDiagnostic, effects[0].Kind)
		assert.Equal(t, diag.SynExpectExpression, effects[0].Diagnostic.Code)
		assert.Equal(t, "before", effects[1].Line)
		assert.Equal(t, "after", effects[2].Line)
	}
}

func TestRunSyntaxAndTypeErrorsReportedTogether(t *testing.T) {
	res := Run(context.Background(), "let x = ;\nlet y = 1;\ny = \"s\";\nprintln(\"no\");", RunOptions{TypeCheck: true})
	assert.Equal(t, StatusTypeCheckFailed, res.Status.Kind)
	assert.Equal(t, []diag.Code{diag.SynExpectExpression, diag.SemaAssignType}, codes(res.Diagnostics))
	assert.Empty(t, res.Effects)
}

func TestRunLexErrorKeepsRunning(t *testing.T) {
	res := Run(context.Background(), "println(\"ok\");\nlet a = \"open;", RunOptions{})
	assert.Equal(t, StatusSuccess, res.Status.Kind)
	assert.Positive(t, res.SyntaxErrors)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.PhaseLex, res.Diagnostics[0].Phase)
	assert.Equal(t, []string{"ok"}, res.Lines())
}

func TestRunGlobalReadBeforeDeclaration(t *testing.T) {
	src := "let a = f(0);\nlet later = \"s\";\nfn f(int d) { return later; }\n"

	res := Run(context.Background(), src, RunOptions{TypeCheck: true})
	assert.Equal(t, StatusTypeCheckFailed, res.Status.Kind)
	assert.Equal(t, []diag.Code{diag.SemaUndefinedVariable}, codes(res.Diagnostics))
	assert.Empty(t, res.Phase(diag.PhaseRuntime))

	unchecked := Run(context.Background(), src, RunOptions{})
	assert.Equal(t, ExitStatus{Kind: StatusRuntimeFatal, Fault: diag.RunUndefinedVariable}, unchecked.Status)

	ordered := Run(context.Background(), "let later = \"s\";\nprintln(f(0));\nfn f(int d) { return later; }\n", RunOptions{TypeCheck: true})
	assert.Equal(t, StatusSuccess, ordered.Status.Kind)
	assert.Equal(t, []string{"s"}, ordered.Lines())
}

func TestRunMaxAttemptsAndEntry(t *testing.T) {
	src := `fn main(int d) { live { assert(d > 0, "needs input"); } }`
	res := Run(context.Background(), src, RunOptions{Entry: "main", MaxAttempts: 5})
	assert.Equal(t, StatusSuccess, res.Status.Kind)
	rt := res.Phase(diag.PhaseRuntime)
	require.Len(t, rt, 6)
	assert.Equal(t, 5, rt[5].Attempt)
}

func TestRunEffectsInterleaveLinesAndDiagnostics(t *testing.T) {
	res := Run(context.Background(), `live { println("try"); assert(false); } println("end");`, RunOptions{MaxAttempts: 2})
	var kinds []vm.EffectKind
	for _, e := range res.Effects {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []vm.EffectKind{
		vm.EffectLine, vm.EffectDiagnostic,
		vm.EffectLine, vm.EffectDiagnostic,
		vm.EffectDiagnostic,
		vm.EffectLine,
	}, kinds)
}

func TestRunTracesPhasesAndTimings(t *testing.T) {
	ring := trace.NewRingTracer(512, trace.LevelDebug)
	var phases []string
	res := Run(context.Background(), negMain, RunOptions{
		TypeCheck: true,
		Trace:     ring,
		Timings:   true,
		OnPhase: func(ev PhaseEvent) {
			if ev.Status == PhaseStart {
				phases = append(phases, ev.Name)
			}
		},
	})
	require.Equal(t, StatusSuccess, res.Status.Kind)
	assert.Equal(t, []string{"parse", "sema", "eval"}, phases)
	require.NotNil(t, res.Timing)
	assert.Len(t, res.Timing.Phases, 3)

	names := ring.Names()
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "parse")
	assert.Contains(t, names, "sema")
	assert.Contains(t, names, "eval")
	assert.Contains(t, names, "live.abandoned")
}

func TestExitStatusCodes(t *testing.T) {
	assert.Equal(t, 0, ExitStatus{Kind: StatusSuccess}.Code())
	assert.Equal(t, 2, ExitStatus{Kind: StatusTypeCheckFailed}.Code())
	assert.Equal(t, 3, ExitStatus{Kind: StatusRuntimeFatal, Fault: diag.RunStackOverflow}.Code())
}

func TestParseStage(t *testing.T) {
	for in, want := range map[string]DiagnoseStage{
		"":         DiagnoseStageSema,
		"all":      DiagnoseStageSema,
		"Syntax":   DiagnoseStageSyntax,
		"tokenize": DiagnoseStageTokenize,
	} {
		got, err := ParseStage(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStage("lower")
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDiagnoseStages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.rsl", "let x = 1;\nx = \"s\";\n")

	res, err := Diagnose(context.Background(), path, DiagnoseOptions{Stage: DiagnoseStageSyntax})
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.NotNil(t, res.Builder)
	assert.Nil(t, res.Sema)

	res, err = Diagnose(context.Background(), path, DiagnoseOptions{Stage: DiagnoseStageSema})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TypeErrors)
	require.NotNil(t, res.Sema)

	_, err = Diagnose(context.Background(), filepath.Join(dir, "missing.rsl"), DiagnoseOptions{})
	assert.Error(t, err)
}

func TestDiagnoseUsesDiskCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	path := writeFile(t, dir, "src/a.rsl", "fn f(int a) { return a + missing; }\n")

	opts := DiagnoseOptions{Stage: DiagnoseStageSema, Cache: cache}
	first, err := Diagnose(context.Background(), path, opts)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Equal(t, 1, first.Bag.Len())

	second, err := Diagnose(context.Background(), path, opts)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Nil(t, second.Builder)
	assert.Equal(t, first.TypeErrors, second.TypeErrors)
	require.Equal(t, 1, second.Bag.Len())
	want, got := first.Bag.Items()[0], second.Bag.Items()[0]
	assert.Equal(t, want.Code, got.Code)
	assert.Equal(t, want.Primary, got.Primary)
	assert.Equal(t, want.Message, got.Message)

	// another stage is another key
	third, err := Diagnose(context.Background(), path, DiagnoseOptions{Stage: DiagnoseStageSyntax, Cache: cache})
	require.NoError(t, err)
	assert.False(t, third.Cached)

	require.NoError(t, cache.DropAll())
	fourth, err := Diagnose(context.Background(), path, opts)
	require.NoError(t, err)
	assert.False(t, fourth.Cached)
}

func TestDiagnoseDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rsl", "fn main(int d) { println(d); }\nmain(1);\n")
	writeFile(t, dir, "nested/b.rsl", "let = 3;\n")
	writeFile(t, dir, "nested/c.rsl", "let s = \"a\" - 1;\n")
	writeFile(t, dir, "notes.txt", "ignored")

	sink := &buildpipeline.CollectSink{}
	_, results, err := DiagnoseDir(context.Background(), dir, DiagnoseOptions{Stage: DiagnoseStageSema}, 2, sink)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, filepath.Join(dir, "a.rsl"), results[0].Path)
	assert.False(t, results[0].Result.HasErrors())
	assert.Equal(t, 1, results[1].Result.SyntaxErrors)
	assert.NotNil(t, results[1].Result.Sema)
	assert.Equal(t, 1, results[2].Result.TypeErrors)

	final := map[string]buildpipeline.Status{}
	for _, ev := range sink.Events() {
		final[ev.File] = ev.Status
	}
	assert.Equal(t, buildpipeline.StatusDone, final[results[0].Path])
	assert.Equal(t, buildpipeline.StatusError, final[results[1].Path])
	assert.Equal(t, buildpipeline.StatusError, final[results[2].Path])
}

func TestDiagnoseDirEmpty(t *testing.T) {
	fs, results, err := DiagnoseDir(context.Background(), t.TempDir(), DiagnoseOptions{}, 0, nil)
	require.NoError(t, err)
	assert.NotNil(t, fs)
	assert.Empty(t, results)
}

func TestTokenizeAndParse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "t.rsl", "static let n = 1;\n")

	toks, err := Tokenize(path, 0)
	require.NoError(t, err)
	assert.Len(t, toks.Tokens, 7)
	assert.Zero(t, toks.Bag.Len())

	parsed, err := Parse(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Zero(t, parsed.Errors)
	assert.Len(t, parsed.Builder.Files.Get(parsed.FileID).Items, 1)

	_, err = Tokenize(filepath.Join(dir, "none.rsl"), 0)
	assert.Error(t, err)
}

func TestRunSinkSeesEffectsAsTheyHappen(t *testing.T) {
	sink := vm.NewRecorder(nil)
	res := Run(context.Background(), negMain, RunOptions{Sink: sink})
	assert.Equal(t, res.Effects, sink.Effects())
	assert.Equal(t, []string{"recovered"}, sink.Lines())
}
