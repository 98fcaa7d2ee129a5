// Package fuzztests holds Go fuzz harnesses for the interpreter pipeline.
// They feed arbitrary bytes through the lexer, the parser and a bounded
// run, and fail on panics or hangs. Diagnostics are expected and ignored.
package fuzztests
