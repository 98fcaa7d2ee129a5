// Package token defines lexical token kinds and trivia for the resilient language.
// Invariants:
//   - Token.Text is the lexeme as written, except identifiers, which are NFC-normalized.
//   - Token.Span covers the lexeme exactly.
//   - Comments and whitespace never appear in the main token stream; they are
//     attached to the next token as leading Trivia.
//   - Type names (int, float, string, bool) are identifiers. They are
//     recognized by the parser and the type checker, not the lexer.
package token
