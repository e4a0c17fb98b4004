package source

import (
	"crypto/sha256"
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// NewFile builds a File with its line index and content hash.
func NewFile(uri string, content []byte, flags FileFlags) *File {
	return &File{
		URI:     uri,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
}

// NewVirtualFile wraps in-memory text such as an editor buffer.
func NewVirtualFile(uri, text string) *File {
	return NewFile(uri, []byte(text), FileVirtual)
}

// Len returns the content length in bytes.
func (f *File) Len() uint32 {
	return safeUint32(len(f.Content))
}

// LineCount returns the number of lines; an empty file has one line.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// LineStart returns the byte offset of the first byte of line (0-based).
func (f *File) LineStart(line int) uint32 {
	if line <= 0 {
		return 0
	}
	if line > len(f.LineIdx) {
		return f.Len()
	}
	return f.LineIdx[line-1] + 1
}

// LineEnd returns the offset of the '\n' ending line, or the content length.
func (f *File) LineEnd(line int) uint32 {
	if line < 0 {
		return 0
	}
	if line < len(f.LineIdx) {
		return f.LineIdx[line]
	}
	return f.Len()
}

// Line returns the text of line (0-based) without its terminator.
func (f *File) Line(line int) string {
	if line < 0 || line >= f.LineCount() {
		return ""
	}
	return string(f.Content[f.LineStart(line):f.LineEnd(line)])
}

// LineOf returns the 0-based line containing off.
func (f *File) LineOf(off uint32) int {
	return sort.Search(len(f.LineIdx), func(i int) bool { return f.LineIdx[i] >= off })
}

// Column returns the byte column of off inside its line.
func (f *File) Column(off uint32) int {
	return int(off - f.LineStart(f.LineOf(off)))
}

// Text returns the content covered by span.
func (f *File) Text(span Span) string {
	end := span.End
	if end > f.Len() {
		end = f.Len()
	}
	if span.Start >= end {
		return ""
	}
	return string(f.Content[span.Start:end])
}

// Offset converts an LSP position into a byte offset, clamping to the line end.
func (f *File) Offset(pos Position) uint32 {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	if len(f.Content) == 0 {
		return 0
	}
	if pos.Line >= f.LineCount() {
		return f.Len()
	}
	lineStart := f.LineStart(pos.Line)
	lineEnd := f.LineEnd(pos.Line)
	units := 0
	off := lineStart
	for off < lineEnd {
		r, size := utf8.DecodeRune(f.Content[off:lineEnd])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		off += safeUint32(size)
		if units == pos.Character {
			break
		}
	}
	return off
}

// Position converts a byte offset into an LSP position.
func (f *File) Position(offset uint32) Position {
	if offset > f.Len() {
		offset = f.Len()
	}
	line := f.LineOf(offset)
	lineStart := f.LineStart(line)
	if lineStart > offset {
		lineStart = offset
	}
	units := 0
	for off := lineStart; off < offset; {
		r, size := utf8.DecodeRune(f.Content[off:offset])
		if off+safeUint32(size) > offset {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += safeUint32(size)
	}
	return Position{Line: line, Character: units}
}

// Range converts a span into an LSP range.
func (f *File) Range(span Span) Range {
	return Range{
		Start: f.Position(span.Start),
		End:   f.Position(span.End),
	}
}

// Span converts an LSP range into a byte span.
func (f *File) Span(r Range) Span {
	start := f.Offset(r.Start)
	end := f.Offset(r.End)
	if end < start {
		end = start
	}
	return Span{Start: start, End: end}
}
