package syntax

type assoc uint8

const (
	assocLeft assoc = iota
	assocRight
	assocNone
)

type opInfo struct {
	prec  int
	assoc assoc
}

// Operator precedences follow the core library's infix declarations.
var operators = map[string]opInfo{
	"<|": {0, assocRight},
	"|>": {0, assocLeft},
	"||": {2, assocRight},
	"&&": {3, assocRight},
	"==": {4, assocNone},
	"/=": {4, assocNone},
	"<":  {4, assocNone},
	">":  {4, assocNone},
	"<=": {4, assocNone},
	">=": {4, assocNone},
	"++": {5, assocRight},
	"::": {5, assocRight},
	"+":  {6, assocLeft},
	"-":  {6, assocLeft},
	"*":  {7, assocLeft},
	"/":  {7, assocLeft},
	"//": {7, assocLeft},
	"^":  {8, assocRight},
	"<<": {9, assocLeft},
	">>": {9, assocRight},
}

func lookupOperator(op string) opInfo {
	if info, ok := operators[op]; ok {
		return info
	}
	return opInfo{prec: 9, assoc: assocLeft}
}
