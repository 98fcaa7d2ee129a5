package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/parser"
	"resilient/internal/source"
	"resilient/internal/types"
)

func checkSource(t *testing.T, src string) (Result, *diag.Bag, *ast.Builder) {
	t.Helper()
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("check.rsl", []byte(src)))

	parseBag := diag.NewBag(0)
	b := ast.NewBuilder(ast.Hints{})
	rep := diag.BagReporter{Bag: parseBag}
	pres := parser.ParseFile(fs, lexer.New(sf, lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	require.Zero(t, parseBag.Len(), "unexpected parse diagnostics: %v", parseBag.Items())

	bag := diag.NewBag(0)
	res := Check(b, pres.File, Options{Reporter: diag.BagReporter{Bag: bag}})
	return res, bag, b
}

func semCodes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestCheckCleanProgram(t *testing.T) {
	res, bag, _ := checkSource(t, `
fn half(float x) { return x / 2; }
fn fact(int n) {
	if n <= 1 { return 1; }
	return n * fact(n - 1);
}
fn main(int d) {
	static let calls = 0;
	calls = calls + 1;
	let h = half(3);
	live {
		assert(h > 1.0, "too small: " + h);
	}
	println("fact", fact(5), !false, -h);
	while d < 3 { d = d + 1; }
}
main(0);
`)
	assert.Empty(t, semCodes(bag), "%v", bag.Items())
	assert.Zero(t, res.Errors)
	require.Contains(t, res.Functions, "fact")
	assert.Equal(t, types.KindInt, res.Functions["fact"].Return)
	assert.Equal(t, types.KindFloat, res.Functions["half"].Return)
	assert.Equal(t, types.KindVoid, res.Functions["main"].Return)
	assert.Equal(t, []types.Kind{types.KindInt}, res.Functions["main"].Params)
}

func TestCheckAssignmentChangesType(t *testing.T) {
	res, bag, _ := checkSource(t, `let x = 1; x = "s";`)
	require.Equal(t, []diag.Code{diag.SemaAssignType}, semCodes(bag))
	assert.Equal(t, 1, res.Errors)
	d := bag.Items()[0]
	assert.Equal(t, diag.PhaseTypeCheck, d.Phase)
	require.Len(t, d.Notes, 1)
}

func TestCheckIntWidensToFloat(t *testing.T) {
	_, bag, _ := checkSource(t, `let f = 1.5; f = 2; fn g(float v) { return v; } g(1);`)
	assert.Empty(t, semCodes(bag))
}

func TestCheckCalls(t *testing.T) {
	_, bag, _ := checkSource(t, `
fn f(int a, string b) { return a; }
f(1);
f("x", "y");
nope(1);
`)
	assert.Equal(t, []diag.Code{diag.SemaArgCount, diag.SemaArgType, diag.SemaUndefinedFunction}, semCodes(bag))
}

func TestCheckAssertArguments(t *testing.T) {
	_, bag, _ := checkSource(t, `assert(1, "x"); assert(true, 2); assert(1 < 2);`)
	assert.Equal(t, []diag.Code{diag.SemaConditionType, diag.SemaAssertMessageType}, semCodes(bag))
}

func TestCheckConditionsAndOperands(t *testing.T) {
	_, bag, _ := checkSource(t, `
if 1 { println(1); }
while "s" { println(2); }
let a = true - 1;
let b = "s" < "t";
let c = 1 == "1";
let d = -"x";
let e = "n" + 1;
`)
	assert.Equal(t, []diag.Code{
		diag.SemaConditionType,
		diag.SemaConditionType,
		diag.SemaInvalidOperand,
		diag.SemaInvalidOperand,
		diag.SemaInvalidOperand,
		diag.SemaInvalidOperand,
	}, semCodes(bag))
}

func TestCheckUndefinedVariable(t *testing.T) {
	_, bag, _ := checkSource(t, `
fn f(int a) { return a + missing; }
y = 2;
{ let inner = 1; }
println(inner);
`)
	assert.Equal(t, []diag.Code{
		diag.SemaUndefinedVariable,
		diag.SemaUndefinedVariable,
		diag.SemaUndefinedVariable,
	}, semCodes(bag))
}

func TestCheckFunctionsSeeGlobals(t *testing.T) {
	_, bag, _ := checkSource(t, `
let limit = 10;
fn within(int v) { return v < limit; }
assert(within(3), "limit");
`)
	assert.Empty(t, semCodes(bag))
}

func TestCheckGlobalReadBeforeDeclaration(t *testing.T) {
	_, bag, _ := checkSource(t, `
let a = f(0);
let later = "s";
fn f(int d) { return later; }
`)
	require.Equal(t, []diag.Code{diag.SemaUndefinedVariable}, semCodes(bag))
	d := bag.Items()[0]
	assert.Equal(t, "call to 'f' uses global 'later' before it is declared", d.Message)
	assert.Equal(t, uint32(9), d.Primary.Start)
	require.Len(t, d.Notes, 1)
	assert.Equal(t, "read here in 'f'", d.Notes[0].Msg)
}

func TestCheckGlobalReadThroughCallee(t *testing.T) {
	_, bag, _ := checkSource(t, `
fn outer(int d) { return inner(d); }
fn inner(int d) { total = total + d; return total; }
outer(1);
let total = 0;
outer(2);
`)
	assert.Equal(t, []diag.Code{diag.SemaUndefinedVariable}, semCodes(bag))
}

func TestCheckGlobalReadInsideFunctionsIsDeferred(t *testing.T) {
	_, bag, _ := checkSource(t, `
fn f(int d) { return later; }
fn g(int d) { return f(d); }
let later = 1;
assert(g(0) == 1, "late");
`)
	assert.Empty(t, semCodes(bag))
}

func TestCheckSignatures(t *testing.T) {
	_, bag, _ := checkSource(t, `
fn f(num a) { return a; }
fn g(int a, int a) { return a; }
fn f(int b) { return b; }
`)
	assert.Equal(t, []diag.Code{diag.SemaUnknownType, diag.SemaDuplicateParam, diag.SemaDuplicateSymbol}, semCodes(bag))
}

func TestCheckConflictingReturns(t *testing.T) {
	res, bag, _ := checkSource(t, `
fn pick(bool b) {
	if b { return 1; }
	return "one";
}
`)
	assert.Equal(t, []diag.Code{diag.SemaReturnType}, semCodes(bag))
	assert.Equal(t, 1, res.Errors)
}

func TestCheckVoidValue(t *testing.T) {
	_, bag, _ := checkSource(t, `
fn log(string s) { println(s); }
let v = log("x");
log("y");
`)
	assert.Equal(t, []diag.Code{diag.SemaVoidValue}, semCodes(bag))
}

func TestCheckMutualRecursion(t *testing.T) {
	res, bag, _ := checkSource(t, `
fn even(int n) { if n == 0 { return true; } return odd(n - 1); }
fn odd(int n) { if n == 0 { return false; } return even(n - 1); }
assert(even(4), "even");
`)
	assert.Empty(t, semCodes(bag))
	assert.Equal(t, types.KindBool, res.Functions["even"].Return)
	assert.Equal(t, types.KindBool, res.Functions["odd"].Return)
}

func TestCheckRecordsExprTypes(t *testing.T) {
	res, _, b := checkSource(t, `let s = "a" + 1;`)
	file := b.Files.Get(1)
	st, _ := b.Items.Stmt(file.Items[0])
	let, _ := b.Stmts.Let(st)
	assert.Equal(t, types.KindString, res.ExprTypes[let.Value])
}
