package cache

import (
	"elmls/internal/diag"
	"elmls/internal/source"
)

// Entry is the stored form of one document's diagnostics. Diagnostic data
// is not kept: resolver ids only live as long as the process that made them.
type Entry struct {
	Schema  uint16
	URI     string
	Records []Record
}

// Record is a flattened diagnostic.
type Record struct {
	StartLine, StartChar int
	EndLine, EndChar     int
	Severity             uint8
	CodeKind             uint8
	CodeStr              string
	CodeInt              int
	Source               string
	Message              string
}

const (
	codeNone uint8 = iota
	codeString
	codeInt
)

// NewEntry flattens diagnostics for storage.
func NewEntry(uri string, diags []diag.Diagnostic) *Entry {
	e := &Entry{URI: uri, Records: make([]Record, 0, len(diags))}
	for _, d := range diags {
		r := Record{
			StartLine: d.Range.Start.Line,
			StartChar: d.Range.Start.Character,
			EndLine:   d.Range.End.Line,
			EndChar:   d.Range.End.Character,
			Severity:  uint8(d.Severity),
			Source:    d.Source,
			Message:   d.Message,
		}
		if s, ok := d.Code.Str(); ok {
			r.CodeKind, r.CodeStr = codeString, s
		} else if n, ok := d.Code.Int(); ok {
			r.CodeKind, r.CodeInt = codeInt, n
		}
		e.Records = append(e.Records, r)
	}
	return e
}

// Diagnostics rebuilds the stored diagnostics.
func (e *Entry) Diagnostics() []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(e.Records))
	for _, r := range e.Records {
		d := diag.Diagnostic{
			Range: source.Range{
				Start: source.Position{Line: r.StartLine, Character: r.StartChar},
				End:   source.Position{Line: r.EndLine, Character: r.EndChar},
			},
			Severity: diag.Severity(r.Severity),
			Source:   r.Source,
			Message:  r.Message,
		}
		switch r.CodeKind {
		case codeString:
			d.Code = diag.StringCode(r.CodeStr)
		case codeInt:
			d.Code = diag.IntCode(r.CodeInt)
		}
		out = append(out, d)
	}
	return out
}
