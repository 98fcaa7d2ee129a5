package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"resilient/internal/source"
	"resilient/internal/token"
)

type TokenOutput struct {
	Kind    string      `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Span    source.Span `json:"span"`
	Leading []string    `json:"leading,omitempty"`
}

// FormatTokensPretty prints one token per line with its position and
// leading trivia.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(tok.Span)

		var leading []string
		for _, trivia := range tok.Leading {
			leading = append(leading, trivia.Kind.String())
		}

		line := fmt.Sprintf("%3d: %-15s", i+1, tok.Kind.String())
		if tok.Text != "" {
			line += fmt.Sprintf(" %q", tok.Text)
		}
		line += fmt.Sprintf(" at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if len(leading) > 0 {
			line += fmt.Sprintf(" (leading: %s)", strings.Join(leading, ", "))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON writes the tokens as a JSON array.
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		out := TokenOutput{
			Kind: tok.Kind.String(),
			Text: tok.Text,
			Span: tok.Span,
		}
		for _, trivia := range tok.Leading {
			out.Leading = append(out.Leading, trivia.Kind.String())
		}
		output = append(output, out)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
