package source

import (
	"fmt"
)

// Span is a byte range inside a single File.
type Span struct {
	Start uint32 // inclusive
	End   uint32 // exclusive
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether off is inside s; the end offset counts as inside
// so that a cursor placed right after a token still selects it.
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off <= s.End
}

// Encloses reports whether other lies completely within s.
func (s Span) Encloses(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}
