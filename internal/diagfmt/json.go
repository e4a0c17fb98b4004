package diagfmt

import (
	"encoding/json"
	"io"

	"elmls/internal/diag"
)

// LocationJSON is a 1-based location.
type LocationJSON struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code,omitempty"`
	Source   string       `json:"source,omitempty"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// FileDiagnostics groups the diagnostics of one document.
type FileDiagnostics struct {
	URI         string
	Diagnostics []diag.Diagnostic
}

// BuildJSON flattens grouped diagnostics. Count is the total before
// truncation.
func BuildJSON(files []FileDiagnostics, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}
	for _, f := range files {
		path := DisplayPath(f.URI, opts.PathMode, opts.BaseDir)
		for _, d := range f.Diagnostics {
			out.Count++
			if opts.Max > 0 && len(out.Diagnostics) >= opts.Max {
				continue
			}
			entry := DiagnosticJSON{
				Severity: d.Severity.String(),
				Source:   d.Source,
				Message:  d.Message,
				Location: LocationJSON{
					File:      path,
					StartLine: d.Range.Start.Line + 1,
					StartCol:  d.Range.Start.Character + 1,
					EndLine:   d.Range.End.Line + 1,
					EndCol:    d.Range.End.Character + 1,
				},
			}
			if !d.Code.IsAbsent() {
				entry.Code = d.Code.String()
			}
			out.Diagnostics = append(out.Diagnostics, entry)
		}
	}
	return out
}

// JSON writes grouped diagnostics as indented JSON.
func JSON(w io.Writer, files []FileDiagnostics, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildJSON(files, opts))
}
