package lexer

import (
	"testing"

	"resilient/internal/source"
)

func createFile(content string) *source.File {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rsl", []byte(content))
	return fs.Get(id)
}

func TestCursorSequentialReading(t *testing.T) {
	cursor := NewCursor(createFile("a\nb"))

	m := cursor.Mark()
	if cursor.Peek() != 'a' || cursor.Bump() != 'a' {
		t.Fatal("expected 'a'")
	}
	if b0, b1, ok := cursor.Peek2(); !ok || b0 != '\n' || b1 != 'b' {
		t.Fatalf("Peek2 = %q %q %v", b0, b1, ok)
	}
	if !cursor.Eat('\n') || cursor.Eat('x') {
		t.Fatal("Eat mismatch")
	}
	cursor.Bump()
	if !cursor.EOF() || cursor.Bump() != 0 || cursor.Peek() != 0 {
		t.Fatal("expected EOF")
	}
	if sp := cursor.SpanFrom(m); sp.Start != 0 || sp.End != 3 {
		t.Fatalf("span = %v", sp)
	}
	cursor.Reset(m)
	if cursor.Off != 0 {
		t.Fatalf("Reset: off = %d", cursor.Off)
	}
}
