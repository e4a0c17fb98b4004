package diag

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

type codeShape uint8

const (
	codeAbsent codeShape = iota
	codeString
	codeInt
)

// Code is a diagnostic code as it travels on the wire: a string, an integer
// or nothing at all. Only string codes select fix providers.
type Code struct {
	shape codeShape
	str   string
	num   int
}

// StringCode wraps a string code.
func StringCode(s string) Code {
	return Code{shape: codeString, str: s}
}

// IntCode wraps an integer code.
func IntCode(n int) Code {
	return Code{shape: codeInt, num: n}
}

// NoCode is the absent code.
var NoCode = Code{}

// Str returns the string form when the code is a string.
func (c Code) Str() (string, bool) {
	return c.str, c.shape == codeString
}

// Int returns the integer form when the code is an integer.
func (c Code) Int() (int, bool) {
	return c.num, c.shape == codeInt
}

func (c Code) IsString() bool { return c.shape == codeString }
func (c Code) IsAbsent() bool { return c.shape == codeAbsent }

// Value returns the code as string, int or nil, ready for a wire struct.
func (c Code) Value() any {
	switch c.shape {
	case codeString:
		return c.str
	case codeInt:
		return c.num
	}
	return nil
}

func (c Code) String() string {
	switch c.shape {
	case codeString:
		return c.str
	case codeInt:
		return strconv.Itoa(c.num)
	}
	return ""
}

func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// UnmarshalJSON accepts a string, a number or null. Any other shape decodes
// to the absent code rather than failing the whole message.
func (c *Code) UnmarshalJSON(data []byte) error {
	*c = decodeCode(data)
	return nil
}

func decodeCode(data []byte) Code {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return NoCode
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return NoCode
		}
		return StringCode(s)
	case 'n', '{', '[', 't', 'f':
		return NoCode
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return NoCode
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return NoCode
	}
	return IntCode(int(f))
}
