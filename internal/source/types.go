package source

type (
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (editor buffer, test, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures the content of a single document together with its line index.
type File struct {
	URI     string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// Position is an LSP position: zero-based line and UTF-16 character offset.
type Position struct {
	Line      int `json:"line" msgpack:"l"`
	Character int `json:"character" msgpack:"c"`
}

// Range is a half-open LSP range.
type Range struct {
	Start Position `json:"start" msgpack:"s"`
	End   Position `json:"end" msgpack:"e"`
}

// Before reports whether p sorts strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Empty reports whether the range is a zero-width insertion point.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Contains reports whether pos lies within r, both ends inclusive.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// Point returns an empty range at pos.
func Point(pos Position) Range {
	return Range{Start: pos, End: pos}
}
