package vm

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/parser"
	"resilient/internal/source"
	"resilient/internal/trace"
)

func runSource(t *testing.T, src string, opts Options) (*VM, *Recorder, *VMError) {
	t.Helper()
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("vm.rsl", []byte(src)))

	bag := diag.NewBag(0)
	b := ast.NewBuilder(ast.Hints{})
	rep := diag.BagReporter{Bag: bag}
	res := parser.ParseFile(fs, lexer.New(sf, lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	require.Zero(t, bag.Len(), "parse diagnostics: %v", bag.Items())

	rec := NewRecorder(nil)
	opts.Effects = rec
	opts.Files = fs
	m := New(b, res.File, opts)
	return m, rec, m.Run(context.Background())
}

func diagCodes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func TestLiveAbandonsAfterMaxAttempts(t *testing.T) {
	src := `
fn neg(int d){ return -5; }
fn main(int d){
	live {
		let v = neg(0);
		assert(v >= 0, "bad");
	}
	println("done");
}
main(0);
`
	_, rec, err := runSource(t, src, Options{MaxAttempts: 3})
	require.Nil(t, err)

	ds := rec.Diagnostics()
	require.Equal(t, []diag.Code{
		diag.RunAssertionFailure,
		diag.RunAssertionFailure,
		diag.RunAssertionFailure,
		diag.RunLiveAbandoned,
	}, diagCodes(ds))
	for i := range 3 {
		assert.Equal(t, i+1, ds[i].Attempt)
		assert.Equal(t, diag.SevWarning, ds[i].Severity)
		assert.Equal(t, "bad", ds[i].Message)
		assert.Equal(t, diag.PhaseRuntime, ds[i].Phase)
	}
	assert.Equal(t, diag.SevError, ds[3].Severity)
	assert.Equal(t, 3, ds[3].Attempt)
	assert.Equal(t, []string{"done"}, rec.Lines())
}

func TestAssertOutsideLiveIsFatal(t *testing.T) {
	_, rec, err := runSource(t, `println("a"); assert(1 > 2, "x"); println("b");`, Options{})
	require.NotNil(t, err)
	assert.Equal(t, diag.RunAssertionFailure, err.Code)
	assert.Equal(t, "x", err.Message)
	assert.Equal(t, []string{"a"}, rec.Lines())
	assert.Empty(t, rec.Diagnostics())
}

func TestAssertDefaultMessageQuotesCondition(t *testing.T) {
	_, _, err := runSource(t, `let n = 3; assert(n < 2);`, Options{})
	require.NotNil(t, err)
	assert.Equal(t, "assertion failed: n < 2", err.Message)
}

func TestRollbackRestoresBindingsButNotOutput(t *testing.T) {
	m, rec, err := runSource(t, `
let x = 0;
live {
	x = x + 1;
	println(x);
	assert(false, "no");
}
println("x", x);
`, Options{MaxAttempts: 3})
	require.Nil(t, err)
	assert.Equal(t, []string{"1", "1", "1", "x 0"}, rec.Lines())
	x, ok := m.Global("x")
	require.True(t, ok)
	assert.Equal(t, MakeInt(0), x)
}

func TestStaticSlotSurvivesRetry(t *testing.T) {
	_, rec, err := runSource(t, `
static let tries = 0;
let y = 0;
live {
	tries = tries + 1;
	y = 10;
	assert(tries >= 2, "first attempt");
}
println(y, tries);
`, Options{})
	require.Nil(t, err)
	assert.Equal(t, []string{"10 2"}, rec.Lines())
	ds := rec.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, 1, ds[0].Attempt)
}

func TestArithmeticErrorIsRecoverable(t *testing.T) {
	_, rec, err := runSource(t, `live { let z = 1 / 0; } println("after");`, Options{MaxAttempts: 2})
	require.Nil(t, err)
	assert.Equal(t, []diag.Code{diag.RunArithmeticError, diag.RunArithmeticError, diag.RunLiveAbandoned},
		diagCodes(rec.Diagnostics()))
	assert.Equal(t, []string{"after"}, rec.Lines())
}

func TestIntOverflowIsArithmeticError(t *testing.T) {
	_, rec, err := runSource(t, `let m = 9223372036854775807; live { m = m + 1; } println(m);`, Options{MaxAttempts: 1})
	require.Nil(t, err)
	assert.Equal(t, []diag.Code{diag.RunArithmeticError, diag.RunLiveAbandoned}, diagCodes(rec.Diagnostics()))
	assert.Equal(t, []string{"9223372036854775807"}, rec.Lines())
}

func TestUnrecoverableFaultInsideLiveIsFatal(t *testing.T) {
	_, rec, err := runSource(t, `live { println(missing); } println("after");`, Options{})
	require.NotNil(t, err)
	assert.Equal(t, diag.RunUndefinedVariable, err.Code)
	assert.False(t, err.Recoverable())
	assert.Empty(t, rec.Lines())
	assert.Empty(t, rec.Diagnostics())
}

func TestNestedAbandonIsNotAFault(t *testing.T) {
	_, rec, err := runSource(t, `
live {
	live { assert(false, "inner"); }
	println("outer continues");
}
`, Options{MaxAttempts: 2})
	require.Nil(t, err)
	assert.Equal(t, []string{"outer continues"}, rec.Lines())
	assert.Equal(t, []diag.Code{diag.RunAssertionFailure, diag.RunAssertionFailure, diag.RunLiveAbandoned},
		diagCodes(rec.Diagnostics()))
}

func TestMaxAttemptsIsConfigurable(t *testing.T) {
	_, rec, err := runSource(t, `live { assert(false); }`, Options{MaxAttempts: 5})
	require.Nil(t, err)
	ds := rec.Diagnostics()
	require.Len(t, ds, 6)
	assert.Equal(t, 5, ds[4].Attempt)
	assert.Equal(t, diag.RunLiveAbandoned, ds[5].Code)
}

func TestEffectStreamOrder(t *testing.T) {
	_, rec, err := runSource(t, `live { println("try"); assert(false, "x"); }`, Options{})
	require.Nil(t, err)
	var kinds []EffectKind
	for _, e := range rec.Effects() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EffectKind{
		EffectLine, EffectDiagnostic,
		EffectLine, EffectDiagnostic,
		EffectLine, EffectDiagnostic,
		EffectDiagnostic,
	}, kinds)
}

func TestReturnInsideLivePropagates(t *testing.T) {
	_, rec, err := runSource(t, `
fn f(int d) {
	live { return d + 1; }
	return 0;
}
println(f(1));
`, Options{})
	require.Nil(t, err)
	assert.Equal(t, []string{"2"}, rec.Lines())
}

func TestStaticInitializedOnce(t *testing.T) {
	m, rec, err := runSource(t, `
fn counter(int d) {
	static let n = 0;
	n = n + 1;
	return n;
}
println(counter(0), counter(0), counter(0));
`, Options{})
	require.Nil(t, err)
	assert.Equal(t, []string{"1 2 3"}, rec.Lines())
	assert.Len(t, m.Statics(), 1)
}

func TestArithmeticAndFormatting(t *testing.T) {
	_, rec, err := runSource(t,
		`println(7 / 2, 7.0 / 2, 1 + 2.5, "s" + 1, 10 % 3, 2.0, true, 1 == 1.0, -7 / 2, !(1 < 2) || false);`,
		Options{})
	require.Nil(t, err)
	assert.Equal(t, []string{"3 3.5 3.5 s1 1 2.0 true true -3 false"}, rec.Lines())
}

func TestControlFlow(t *testing.T) {
	_, rec, err := runSource(t, `
fn classify(int n) {
	if n < 0 { return "neg"; } else if n == 0 { return "zero"; } else { return "pos"; }
}
let i = 0;
let total = 0;
while i < 5 {
	let step = i * 2;
	total = total + step;
	i = i + 1;
}
println(total, classify(-1), classify(0), classify(7));
`, Options{})
	require.Nil(t, err)
	assert.Equal(t, []string{"20 neg zero pos"}, rec.Lines())
}

func TestRuntimeTypeMismatch(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"assign other kind", `let x = 1; x = "s";`},
		{"condition not bool", `if 1 { println(1); }`},
		{"operator on strings", `let a = "a" - "b";`},
		{"argument kind", `fn f(int a) { return a; } f("s");`},
		{"argument count", `fn f(int a) { return a; } f(1, 2);`},
		{"void value", `fn f(int a) { println(a); } let v = f(1);`},
		{"unknown param type", `fn f(num a) { return a; } f(1);`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runSource(t, tc.src, Options{})
			require.NotNil(t, err)
			assert.Equal(t, diag.RunTypeMismatch, err.Code, err.Message)
		})
	}
}

func TestIntWidensIntoFloat(t *testing.T) {
	_, rec, err := runSource(t, `let f = 1.5; f = 2; fn h(float v) { return v; } println(f, h(3));`, Options{})
	require.Nil(t, err)
	assert.Equal(t, []string{"2.0 3.0"}, rec.Lines())
}

func TestUndefinedFunctionIsFatal(t *testing.T) {
	_, _, err := runSource(t, `live { nope(1); }`, Options{})
	require.NotNil(t, err)
	assert.Equal(t, diag.RunUndefinedFunction, err.Code)
}

func TestStackOverflow(t *testing.T) {
	_, _, err := runSource(t, `fn f(int n) { return f(n + 1); } f(0);`, Options{MaxCallDepth: 50})
	require.NotNil(t, err)
	assert.Equal(t, diag.RunStackOverflow, err.Code)
	assert.Len(t, err.Backtrace, 50)
	assert.Equal(t, "f", err.Backtrace[0].FuncName)
}

func TestCancelledContext(t *testing.T) {
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("c.rsl", []byte(`let i = 0; while true { i = i + 1; }`)))
	b := ast.NewBuilder(ast.Hints{})
	res := parser.ParseFile(fs, lexer.New(sf, lexer.Options{}), b, parser.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(b, res.File, Options{}).Run(ctx)
	require.NotNil(t, err)
	assert.Equal(t, diag.RunCancelled, err.Code)
}

func TestEntryFunctionGetsZeroValues(t *testing.T) {
	_, rec, err := runSource(t, `fn main(int d, string s, bool b) { println(d, s == "", b); }`, Options{Entry: "main"})
	require.Nil(t, err)
	assert.Equal(t, []string{"0 true false"}, rec.Lines())
}

func TestLiveTransitionsAreTraced(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	_, _, err := runSource(t, `live { assert(false, "x"); }`, Options{Tracer: ring})
	require.Nil(t, err)

	var live []string
	for _, name := range ring.Names() {
		if strings.HasPrefix(name, "live.") {
			live = append(live, name)
		}
	}
	assert.Equal(t, []string{"live.init", "live.retry", "live.retry", "live.abandoned"}, live)
}

func TestFaultFormatting(t *testing.T) {
	fs := source.NewFileSet()
	src := "fn f(int n) {\n  return n / 0;\n}\nf(1);\n"
	sf := fs.Get(fs.AddVirtual("fmt.rsl", []byte(src)))
	b := ast.NewBuilder(ast.Hints{})
	res := parser.ParseFile(fs, lexer.New(sf, lexer.Options{}), b, parser.Options{})

	err := New(b, res.File, Options{Files: fs}).Run(context.Background())
	require.NotNil(t, err)
	out := err.FormatWithFiles(fs)
	assert.Contains(t, out, "fault RUN4002: division by zero")
	assert.Contains(t, out, "at fmt.rsl:2:10")
	assert.Contains(t, out, "0: f at fmt.rsl:4:1")
}

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		2:     "2.0",
		3.5:   "3.5",
		0:     "0.0",
		-0.5:  "-0.5",
		100:   "100.0",
		1e21:  "1e+21",
		1e-5:  "1e-05",
		0.001: "0.001",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatFloat(in), "formatFloat(%v)", in)
	}
}

func TestLiveSnapshotCopyFailureIsFatal(t *testing.T) {
	orig := copyBindings
	t.Cleanup(func() { copyBindings = orig })

	calls := 0
	copyBindings = func(dst *map[string]Binding, src map[string]Binding) error {
		calls++
		// the first copy takes the snapshot; fail the restore before attempt 2
		if calls > 1 {
			return errors.New("copy refused")
		}
		return orig(dst, src)
	}

	_, rec, err := runSource(t, `let n = 1; live { n = n + 1; assert(false, "x"); } println("never");`, Options{MaxAttempts: 3})
	require.NotNil(t, err)
	assert.Equal(t, diag.RunSnapshotFailed, err.Code)
	assert.False(t, err.Recoverable())
	assert.Contains(t, err.Message, "copy refused")
	assert.Equal(t, []diag.Code{diag.RunAssertionFailure}, diagCodes(rec.Diagnostics()))
	assert.Empty(t, rec.Lines())
}

func TestCheckedIntArithmetic(t *testing.T) {
	for _, tc := range []struct {
		name string
		fn   func(a, b int64) (int64, bool)
		a, b int64
		want int64
		ok   bool
	}{
		{"add", addInt, 40, 2, 42, true},
		{"add max", addInt, math.MaxInt64, 1, 0, false},
		{"add min", addInt, math.MinInt64, -1, 0, false},
		{"add mixed signs", addInt, math.MaxInt64, math.MinInt64, -1, true},
		{"sub", subInt, 2, 44, -42, true},
		{"sub min", subInt, math.MinInt64, 1, 0, false},
		{"sub negative from max", subInt, math.MaxInt64, -1, 0, false},
		{"sub min from zero", subInt, 0, math.MinInt64, 0, false},
		{"mul", mulInt, -6, 7, -42, true},
		{"mul zero", mulInt, 0, math.MinInt64, 0, true},
		{"mul min by -1", mulInt, math.MinInt64, -1, 0, false},
		{"mul large", mulInt, 1 << 32, 1 << 32, 0, false},
	} {
		got, ok := tc.fn(tc.a, tc.b)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}
