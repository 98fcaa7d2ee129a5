package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

// builtinSeeds cover the recovery paths of the parser.
var builtinSeeds = []string{
	"",
	"println(1);\n",
	"fn f() { return 1; }\n",
	"fn f(a) { }\n",
	"let x = ;\nlet y = 2;\n",
	"fn f(int a) { let x = 1\nlet y = 2; }\n",
	"live { assert(false, \"x\"); }\n",
	"live { live { let z = 1 / 0; } }\n",
	"while true { }\n",
	"fn f(int a) { return f(a); }\nf(1);\n",
	"if 1 < 2 { println(\"a\"); } else { println(\"b\"); }\n",
	"static let n = 0; n = n + 1 % 0;\n",
	"\"unterminated\n",
	"let s = \"a\" + 1 + 2.5 + true;\n",
	"{ { { { } } } }\n",
	"1 $ 2 @ 3;\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every .rsl file under the repository testdata tree.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".rsl" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
