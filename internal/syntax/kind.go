package syntax

// Kind is the closed set of node tags produced by the parser. Code that
// pattern-matches on tree shape switches over these constants only.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindError
	KindFile

	// Module header and imports.
	KindModuleDecl
	KindModuleName
	KindExposingList
	KindDoubleDot
	KindExposedValue
	KindExposedType
	KindExposedOperator
	KindImportDecl

	// Top-level and let declarations.
	KindTypeDecl
	KindUnionVariant
	KindTypeAliasDecl
	KindTypeAnnotation
	KindValueDecl
	KindLowerName
	KindUpperName

	// Type expressions.
	KindTypeRef
	KindTypeVar
	KindFunctionType
	KindTupleType
	KindUnitType
	KindRecordType
	KindFieldType

	// Expressions.
	KindValueRef
	KindConstructorRef
	KindOperatorRef
	KindCall
	KindBinOp
	KindNegate
	KindLambda
	KindIf
	KindCase
	KindCaseBranch
	KindLet
	KindParen
	KindTuple
	KindUnit
	KindList
	KindRecord
	KindRecordUpdate
	KindFieldAssign
	KindFieldAccess
	KindFieldAccessor
	KindIntLit
	KindFloatLit
	KindStringLit
	KindCharLit

	// Patterns. Literal patterns reuse the literal kinds.
	KindVarPattern
	KindWildcardPattern
	KindConstructorPattern
	KindTuplePattern
	KindListPattern
	KindConsPattern
	KindRecordPattern
	KindAliasPattern
	KindUnitPattern
)

var kindNames = [...]string{
	KindInvalid:            "invalid",
	KindError:              "error",
	KindFile:               "file",
	KindModuleDecl:         "module_declaration",
	KindModuleName:         "module_name",
	KindExposingList:       "exposing_list",
	KindDoubleDot:          "double_dot",
	KindExposedValue:       "exposed_value",
	KindExposedType:        "exposed_type",
	KindExposedOperator:    "exposed_operator",
	KindImportDecl:         "import_clause",
	KindTypeDecl:           "type_declaration",
	KindUnionVariant:       "union_variant",
	KindTypeAliasDecl:      "type_alias_declaration",
	KindTypeAnnotation:     "type_annotation",
	KindValueDecl:          "value_declaration",
	KindLowerName:          "lower_name",
	KindUpperName:          "upper_name",
	KindTypeRef:            "type_ref",
	KindTypeVar:            "type_variable",
	KindFunctionType:       "function_type",
	KindTupleType:          "tuple_type",
	KindUnitType:           "unit_type",
	KindRecordType:         "record_type",
	KindFieldType:          "field_type",
	KindValueRef:           "value_ref",
	KindConstructorRef:     "constructor_ref",
	KindOperatorRef:        "operator_ref",
	KindCall:               "function_call",
	KindBinOp:              "bin_op",
	KindNegate:             "negate",
	KindLambda:             "lambda",
	KindIf:                 "if_else",
	KindCase:               "case_of",
	KindCaseBranch:         "case_branch",
	KindLet:                "let_in",
	KindParen:              "parenthesized",
	KindTuple:              "tuple",
	KindUnit:               "unit",
	KindList:               "list",
	KindRecord:             "record",
	KindRecordUpdate:       "record_update",
	KindFieldAssign:        "field_assign",
	KindFieldAccess:        "field_access",
	KindFieldAccessor:      "field_accessor",
	KindIntLit:             "int",
	KindFloatLit:           "float",
	KindStringLit:          "string",
	KindCharLit:            "char",
	KindVarPattern:         "var_pattern",
	KindWildcardPattern:    "wildcard_pattern",
	KindConstructorPattern: "constructor_pattern",
	KindTuplePattern:       "tuple_pattern",
	KindListPattern:        "list_pattern",
	KindConsPattern:        "cons_pattern",
	KindRecordPattern:      "record_pattern",
	KindAliasPattern:       "alias_pattern",
	KindUnitPattern:        "unit_pattern",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsDeclaration reports whether k can appear as a top-level item or let binding.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindTypeDecl, KindTypeAliasDecl, KindTypeAnnotation, KindValueDecl:
		return true
	default:
		return false
	}
}

// IsPattern reports whether k is a pattern-only kind.
func (k Kind) IsPattern() bool {
	return k >= KindVarPattern && k <= KindUnitPattern
}

// IsType reports whether k is a type expression.
func (k Kind) IsType() bool {
	return k >= KindTypeRef && k <= KindFieldType
}

// IsLiteral reports whether k is a literal; literals occur in expressions and patterns.
func (k Kind) IsLiteral() bool {
	return k >= KindIntLit && k <= KindCharLit
}

// Field names a child slot of a node, e.g. the body of a declaration.
type Field uint8

const (
	FieldNone Field = iota
	FieldName
	FieldExposing
	FieldAlias
	FieldType
	FieldBody
	FieldTarget
	FieldLeft
	FieldRight
	FieldCondition
	FieldThen
	FieldElse
	FieldSubject
	FieldPattern
	FieldRecord
	FieldValue
	FieldBase
)

var fieldNames = [...]string{
	FieldNone:      "",
	FieldName:      "name",
	FieldExposing:  "exposing",
	FieldAlias:     "alias",
	FieldType:      "type",
	FieldBody:      "body",
	FieldTarget:    "target",
	FieldLeft:      "left",
	FieldRight:     "right",
	FieldCondition: "condition",
	FieldThen:      "then",
	FieldElse:      "else",
	FieldSubject:   "subject",
	FieldPattern:   "pattern",
	FieldRecord:    "record",
	FieldValue:     "value",
	FieldBase:      "base",
}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return "Field(?)"
}
