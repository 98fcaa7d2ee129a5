package fuzztests

import (
	"testing"

	"resilient/internal/diag"
	"resilient/internal/lexer"
	"resilient/internal/source"
	"resilient/internal/token"
)

const maxFuzzInput = 1 << 16

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampSeed(input)

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.rsl", input))

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		// every token consumes input, so the token count is bounded
		for n := 0; ; n++ {
			tok := lx.Next()
			if tok.Kind == token.EOF {
				break
			}
			if n > len(input)+1 {
				t.Fatalf("lexer made no progress on %q", truncateForLog(input, 200))
			}
		}
	})
}
