package diag

import (
	"bytes"
	"encoding/json"

	"elmls/internal/source"
)

// Source names attached by the analysis engines.
const (
	SourceCompiler = "elm"
	SourceLint     = "elm-lint"
)

// Diagnostic mirrors the LSP diagnostic record. Data is opaque to the
// code-action core and round-trips unchanged.
type Diagnostic struct {
	Range    source.Range
	Severity Severity
	Code     Code
	Source   string
	Message  string
	Data     json.RawMessage
}

func New(sev Severity, code string, rng source.Range, msg string) Diagnostic {
	return Diagnostic{
		Range:    rng,
		Severity: sev,
		Code:     StringCode(code),
		Message:  msg,
	}
}

func NewError(code string, rng source.Range, msg string) Diagnostic {
	return New(SevError, code, rng, msg)
}

func (d Diagnostic) WithSource(src string) Diagnostic {
	d.Source = src
	return d
}

// WithData marshals v into the Data field; an unmarshalable value leaves
// Data empty.
func (d Diagnostic) WithData(v any) Diagnostic {
	raw, err := json.Marshal(v)
	if err != nil {
		return d
	}
	d.Data = raw
	return d
}

// Identical reports whether two diagnostics describe the same finding.
func (d Diagnostic) Identical(other Diagnostic) bool {
	return d.Range == other.Range &&
		d.Severity == other.Severity &&
		d.Code == other.Code &&
		d.Source == other.Source &&
		d.Message == other.Message &&
		bytes.Equal(d.Data, other.Data)
}

type wireDiagnostic struct {
	Range    source.Range    `json:"range"`
	Severity Severity        `json:"severity,omitempty"`
	Code     any             `json:"code,omitempty"`
	Source   string          `json:"source,omitempty"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDiagnostic{
		Range:    d.Range,
		Severity: d.Severity,
		Code:     d.Code.Value(),
		Source:   d.Source,
		Message:  d.Message,
		Data:     d.Data,
	})
}

func (d *Diagnostic) UnmarshalJSON(data []byte) error {
	var w struct {
		Range    source.Range    `json:"range"`
		Severity Severity        `json:"severity"`
		Code     json.RawMessage `json:"code"`
		Source   string          `json:"source"`
		Message  string          `json:"message"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Diagnostic{
		Range:    w.Range,
		Severity: w.Severity,
		Code:     decodeCode(w.Code),
		Source:   w.Source,
		Message:  w.Message,
		Data:     w.Data,
	}
	if bytes.Equal(bytes.TrimSpace(d.Data), []byte("null")) {
		d.Data = nil
	}
	return nil
}
