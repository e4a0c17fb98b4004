package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint is an instant log line.
	KindPoint
	// KindError is an instant event emitted at every level but off.
	KindError
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower values are coarser.
type Scope uint8

const (
	// ScopeServer covers server lifecycle: initialize, shutdown, config reloads.
	ScopeServer Scope = iota + 1
	// ScopeRequest covers one protocol request or CLI command.
	ScopeRequest
	// ScopeDocument covers per-document work inside a request.
	ScopeDocument
	// ScopeProvider covers a single provider or source invocation.
	ScopeProvider
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeServer:
		return "server"
	case ScopeRequest:
		return "request"
	case ScopeDocument:
		return "document"
	case ScopeProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // global sequence number, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	Name     string // e.g. "codeAction", "provider:add_missing_type_annotation"
	Detail   string
	Extra    map[string]string
}
