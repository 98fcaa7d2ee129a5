package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resilient/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("sample.rsl", []byte("a\nb\n"))

	diags := []Diagnostic{
		New(SevWarning, RunAssertionFailure, source.Span{File: file, Start: 2, End: 3}, "assertion failed").WithAttempt(2),
		NewError(SynUnexpectedToken, source.Span{File: file, Start: 0, End: 1}, "first line\nsecond").
			WithNote(source.Span{File: file, Start: 2, End: 3}, "note line"),
		New(SevWarning, RunAssertionFailure, source.Span{File: file, Start: 2, End: 3}, "assertion failed").WithAttempt(1),
	}

	expected := "error SYN2001 sample.rsl:1:1 first line second\n" +
		"note SYN2001 sample.rsl:2:1 note line\n" +
		"warning RUN4001 sample.rsl:2:1 assertion failed (attempt 1)\n" +
		"warning RUN4001 sample.rsl:2:1 assertion failed (attempt 2)"
	assert.Equal(t, expected, FormatShortDiagnostics(diags, fs, true))
}

func TestCodeRanges(t *testing.T) {
	cases := []struct {
		code  Code
		id    string
		phase Phase
	}{
		{LexUnknownChar, "LEX1001", PhaseLex},
		{SynFnNoParams, "SYN2008", PhaseParse},
		{SemaAssignType, "SEM3007", PhaseTypeCheck},
		{RunAssertionFailure, "RUN4001", PhaseRuntime},
		{RunLiveAbandoned, "RUN4010", PhaseRuntime},
		{UnknownCode, "E0000", PhaseUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.id, tc.code.ID())
		assert.Equal(t, tc.phase, tc.code.Phase())
		assert.NotEqual(t, "", tc.code.Title())
	}
}

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(2)
	require.True(t, bag.Add(NewError(SynExpectSemicolon, source.Span{Start: 10, End: 11}, "b")))
	require.True(t, bag.Add(New(SevWarning, SynExpectSemicolon, source.Span{Start: 1, End: 2}, "a")))
	require.False(t, bag.Add(NewError(SynExpectSemicolon, source.Span{Start: 0, End: 1}, "dropped")))

	bag.Sort()
	require.Equal(t, 2, bag.Len())
	assert.Equal(t, "a", bag.Items()[0].Message)
	assert.True(t, bag.HasErrors())
	assert.Len(t, bag.Filter(PhaseParse), 2)
	assert.Empty(t, bag.Filter(PhaseRuntime))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "INFO", SevInfo.String())
	assert.Equal(t, "WARNING", SevWarning.String())
	assert.Equal(t, "ERROR", SevError.String())
	assert.Equal(t, "UNKNOWN", Severity(9).String())
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	rep := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 3, End: 4}
	rep.Report(LexUnknownChar, SevError, sp, "unknown character '@'", nil)
	rep.Report(LexUnknownChar, SevError, sp, "unknown character '@'", nil)
	ReportError(rep, LexBadNumber, sp, "bad").WithNote(sp, "here").Emit()

	rep.Report(LexUnknownChar, SevWarning, sp, "unknown character '@'", nil)

	require.Equal(t, 3, bag.Len())
	assert.Equal(t, PhaseLex, bag.Items()[1].Phase)
	assert.Len(t, bag.Items()[1].Notes, 1)
}
