package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"elmls/internal/diag"
	"elmls/internal/source"
)

type palette struct {
	err, warn, info, hint *color.Color
	path, gutter, caret   *color.Color
	added, removed        *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgBlue, color.Bold),
		hint:    color.New(color.FgCyan),
		path:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgMagenta, color.Bold),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.hint, p.path, p.gutter, p.caret, p.added, p.removed} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	case diag.SevInfo:
		return p.info
	default:
		return p.hint
	}
}

// Pretty prints diagnostics of one file as
//
//	<path>:<line>:<col>: <SEV> <code>: <message> [source]
//
// followed by the source line with the range underlined as ^~~~.
// Lines and columns are 1-based; columns count UTF-16 units like LSP.
func Pretty(w io.Writer, file *source.File, diags []diag.Diagnostic, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	path := DisplayPath(file.URI, opts.PathMode, opts.BaseDir)
	for _, d := range diags {
		var b strings.Builder
		start := d.Range.Start
		b.WriteString(p.path.Sprintf("%s:%d:%d:", path, start.Line+1, start.Character+1))
		b.WriteString(" ")
		b.WriteString(p.severity(d.Severity).Sprint(d.Severity.String()))
		if !d.Code.IsAbsent() {
			b.WriteString(" ")
			b.WriteString(d.Code.String())
		}
		b.WriteString(": ")
		b.WriteString(firstLine(d.Message))
		if d.Source != "" {
			fmt.Fprintf(&b, " [%s]", d.Source)
		}
		b.WriteString("\n")
		writeSnippet(&b, file, d.Range, opts.Context, p)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// Summary prints "N errors, M warnings" for diags; nothing when empty.
func Summary(w io.Writer, diags []diag.Diagnostic, opts PrettyOpts) error {
	var errs, warns, other int
	for _, d := range diags {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		default:
			other++
		}
	}
	if errs+warns+other == 0 {
		return nil
	}
	p := newPalette(opts.Color)
	parts := []string{}
	if errs > 0 {
		parts = append(parts, p.err.Sprint(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, p.warn.Sprint(plural(warns, "warning")))
	}
	if other > 0 {
		parts = append(parts, p.hint.Sprint(plural(other, "hint")))
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, ", "))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}

func writeSnippet(b *strings.Builder, file *source.File, rng source.Range, context int, p palette) {
	line := rng.Start.Line
	if line < 0 || line >= file.LineCount() {
		return
	}
	if context < 0 {
		context = 0
	}
	first := max(0, line-context)
	last := min(file.LineCount()-1, line+context)
	width := len(strconv.Itoa(last + 1))

	for n := first; n <= last; n++ {
		text := file.Line(n)
		fmt.Fprintf(b, "%s %s\n", p.gutter.Sprintf("%*d |", width, n+1), text)
		if n != line {
			continue
		}
		startOff := file.Offset(rng.Start)
		lineStart := file.LineStart(line)
		endOff := file.Offset(rng.End)
		if rng.End.Line != line {
			endOff = file.LineEnd(line)
		}
		pad := runewidth.StringWidth(string(file.Content[lineStart:startOff]))
		span := max(1, runewidth.StringWidth(string(file.Content[startOff:max(startOff, endOff)])))
		marker := "^" + strings.Repeat("~", span-1)
		fmt.Fprintf(b, "%s %s%s\n", p.gutter.Sprint(strings.Repeat(" ", width)+" |"), strings.Repeat(" ", pad), p.caret.Sprint(marker))
	}
}
