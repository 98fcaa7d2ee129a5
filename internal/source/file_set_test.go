package source

import (
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.rsl", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}
	id2 := fs.Add("test.rsl", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("test.rsl")
	if !exists || latestID != id2 {
		t.Errorf("Expected latest ID %d, got %d (exists=%v)", id2, latestID, exists)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Errorf("old version lost: %q", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.rsl", []byte("let x = 1;\nlet y = 2;\n\nz"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{4, LineCol{1, 5}},
		{10, LineCol{1, 11}}, // the newline itself
		{11, LineCol{2, 1}},
		{22, LineCol{3, 1}},
		{23, LineCol{4, 1}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Errorf("offset %d: got %+v, want %+v", tc.off, start, tc.want)
		}
	}
}

func TestAddNormalized(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddNormalized("w.rsl", []byte("\xEF\xBB\xBFa\r\nb"))
	f := fs.Get(id)
	if string(f.Content) != "a\nb" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b", f.Flags)
	}
	if f.GetLine(2) != "b" || f.GetLine(1) != "a" || f.GetLine(3) != "" {
		t.Errorf("GetLine mismatch: %q %q %q", f.GetLine(1), f.GetLine(2), f.GetLine(3))
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Errorf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Errorf("cross-file cover changed span: %v", got)
	}
	if !a.Cover(b).Contains(a) {
		t.Error("cover must contain its operands")
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("alpha")
	if a == NoStringID {
		t.Fatal("interned id must not be NoStringID")
	}
	if in.Intern("alpha") != a {
		t.Error("re-interning must return the same id")
	}
	if s, ok := in.Lookup(a); !ok || s != "alpha" {
		t.Errorf("Lookup = %q, %v", s, ok)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Error("unknown id must not resolve")
	}
	if in.Len() != 2 {
		t.Errorf("Len = %d", in.Len())
	}
}
