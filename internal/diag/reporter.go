package diag

import (
	"encoding/json"

	"elmls/internal/source"
)

// Reporter receives diagnostics from an analysis pass.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code string, rng source.Range, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, rng, msg),
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code string, rng source.Range, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, rng, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code string, rng source.Range, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, rng, msg)
}

func (b *ReportBuilder) WithSource(src string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Source = src
	return b
}

func (b *ReportBuilder) WithSeverity(sev Severity) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Severity = sev
	return b
}

// WithData attaches pre-encoded payload.
func (b *ReportBuilder) WithData(raw json.RawMessage) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Data = raw
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}
