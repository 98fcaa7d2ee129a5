package fuzztests

import (
	"context"
	"testing"
	"time"

	"resilient/internal/ast"
	"resilient/internal/diag"
	"resilient/internal/driver"
	"resilient/internal/lexer"
	"resilient/internal/parser"
	"resilient/internal/source"
	"resilient/internal/testkit"
)

// parseTimeout bounds a single parse; exceeding it means a recovery loop.
const parseTimeout = 5 * time.Second

func parse(input []byte) (*ast.Builder, parser.Result, *source.File) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("fuzz.rsl", input))

	reporter := diag.BagReporter{Bag: diag.NewBag(128)}
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	builder := ast.NewBuilder(ast.Hints{})
	res := parser.ParseFile(fs, lx, builder, parser.Options{Reporter: reporter, MaxErrors: 128})
	return builder, res, file
}

func FuzzParserBuildsAST(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		builder, res, file := parse(clampSeed(input))
		// recovery may leave partial spans; only clean parses are checked
		if res.Errors > 0 || len(builder.Files.Get(res.File).Items) == 0 {
			return
		}
		if err := testkit.CheckSpanInvariants(builder, res.File, file); err != nil {
			t.Fatalf("span invariant: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

// FuzzParserNoHang runs the parser in a goroutine and fails when it does not
// finish within parseTimeout.
func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("fn f(int a) { x + y\nlet z = 3; }"))
	f.Add([]byte("fn f(int a) { while { } }"))
	f.Add([]byte("fn (int a) { } fn g(,) { }"))
	f.Add([]byte("live live live"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input)
		done := make(chan struct{})
		go func() {
			defer close(done)
			parse(input)
		}()

		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parser hang detected after %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// runBudget bounds one interpreted run. Loops observe the cancellation.
const runBudget = 200 * time.Millisecond

func FuzzRunTerminates(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		ctx, cancel := context.WithTimeout(context.Background(), runBudget)
		defer cancel()

		res := driver.Run(ctx, string(input), driver.RunOptions{
			TypeCheck:    true,
			MaxAttempts:  2,
			MaxCallDepth: 64,
		})
		switch res.Status.Kind {
		case driver.StatusSuccess, driver.StatusTypeCheckFailed, driver.StatusRuntimeFatal:
		default:
			t.Fatalf("unexpected status %v for %q", res.Status, truncateForLog(input, 200))
		}
		if res.Status.Kind == driver.StatusRuntimeFatal && res.Fault == nil {
			t.Fatalf("fatal status without a fault for %q", truncateForLog(input, 200))
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(append([]byte(nil), input[:maxLen]...), "..."...)
}
