package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"resilient/internal/diag"
	"resilient/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue),
		gutter: color.New(color.FgBlue, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes diagnostics in a human-readable form:
//
//	<path>:<line>:<col>: <sev> <CODE>: <message> [(attempt N)]
//	  12 | source line
//	     |     ^~~~
//
// followed by notes when enabled. Diagnostics are printed in the given order.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i := range diags {
		if err := prettyOne(w, &diags[i], fs, opts, p); err != nil {
			return err
		}
	}
	return nil
}

// PrettyBag is Pretty over a bag's items.
func PrettyBag(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	return Pretty(w, bag.Items(), fs, opts)
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var b strings.Builder
	loc := "<unknown>"
	if validSpan(fs, d.Primary) {
		start, _ := fs.Resolve(d.Primary)
		loc = fmt.Sprintf("%s:%d:%d", formatPath(fs.Get(d.Primary.File), fs, opts.PathMode), start.Line, start.Col)
	}
	b.WriteString(p.bold.Sprint(loc + ":"))
	b.WriteString(" ")
	b.WriteString(p.severity(d.Severity).Sprintf("%s %s", diag.SeverityLabel(d.Severity), d.Code.ID()))
	b.WriteString(": ")
	b.WriteString(p.bold.Sprint(d.Message))
	if d.Attempt > 0 {
		fmt.Fprintf(&b, " (attempt %d)", d.Attempt)
	}
	b.WriteString("\n")
	if validSpan(fs, d.Primary) {
		writeSnippet(&b, fs, d.Primary, opts.Context, p, p.severity(d.Severity))
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			noteLoc := ""
			if validSpan(fs, n.Span) && (n.Span.Start != 0 || n.Span.End != 0) {
				start, _ := fs.Resolve(n.Span)
				noteLoc = fmt.Sprintf("%s:%d:%d: ", formatPath(fs.Get(n.Span.File), fs, opts.PathMode), start.Line, start.Col)
			}
			fmt.Fprintf(&b, "  %s %s%s\n", p.note.Sprint("note:"), noteLoc, n.Msg)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// writeSnippet prints the primary line (plus context lines) with a caret
// underline. Tabs are kept in the padding so the carets line up.
func writeSnippet(b *strings.Builder, fs *source.FileSet, sp source.Span, ctxLines int, p palette, mark *color.Color) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	first := start.Line
	n := uint32(max(ctxLines, 0))
	if n < first {
		first -= n
	} else {
		first = 1
	}
	last := start.Line + n

	width := len(fmt.Sprint(last))
	for ln := first; ln <= last; ln++ {
		if int(ln) > len(f.LineIdx)+1 {
			break
		}
		text := strings.TrimRight(f.GetLine(ln), "\r")
		fmt.Fprintf(b, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln), text)
		if ln != start.Line {
			continue
		}
		col := int(start.Col) - 1
		col = min(max(col, 0), len(text))
		stop := len(text)
		if end.Line == start.Line {
			stop = min(max(int(end.Col)-1, col), len(text))
		}
		underline := max(runewidth.StringWidth(text[col:stop]), 1)
		fmt.Fprintf(b, "%s %s%s\n",
			p.gutter.Sprintf("%*s |", width, ""),
			padding(text[:col]),
			mark.Sprint("^"+strings.Repeat("~", underline-1)))
	}
}

func padding(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
