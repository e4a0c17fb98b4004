package diag

import (
	"strings"
)

// Severity defines the importance of a diagnostic. Values match the LSP
// DiagnosticSeverity enumeration, so a lower value is more severe.
type Severity uint8

const (
	SevError   Severity = 1
	SevWarning Severity = 2
	// SevInfo is for informational diagnostics.
	SevInfo Severity = 3
	// SevHint marks style suggestions such as lint findings.
	SevHint Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "ERROR"
	case SevWarning:
		return "WARNING"
	case SevInfo:
		return "INFO"
	case SevHint:
		return "HINT"
	}
	return "UNKNOWN"
}

// AtLeast reports whether s is as severe as other or more. The zero value
// is treated as the least severe.
func (s Severity) AtLeast(other Severity) bool {
	return s != 0 && s <= other
}

// ParseSeverity maps a lowercase name to a Severity.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(name) {
	case "error":
		return SevError, true
	case "warning", "warn":
		return SevWarning, true
	case "info", "information":
		return SevInfo, true
	case "hint":
		return SevHint, true
	}
	return 0, false
}
