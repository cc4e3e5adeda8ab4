package domain

import "strings"

// TypeClass selects which statistics block follows the fixed profile prefix.
type TypeClass string

const (
	TypeClassString  TypeClass = "string"
	TypeClassNumeric TypeClass = "numeric"
	TypeClassOther   TypeClass = "other"
)

var (
	stringTypeKeywords  = []string{"string", "varchar"}
	numericTypeKeywords = []string{"bigint", "int", "smallint", "tinyint", "decimal", "double", "float", "long"}
	temporalKeywords    = []string{"date", "timestamp"}
)

// ClassifyType maps a declared column type to exactly one TypeClass using a
// case-insensitive substring match. String is tested before Numeric, so
// "varchar" never lands in Numeric even though a future keyword might overlap.
func ClassifyType(declared string) TypeClass {
	t := strings.ToLower(declared)
	if containsAny(t, stringTypeKeywords) {
		return TypeClassString
	}
	if containsAny(t, numericTypeKeywords) {
		return TypeClassNumeric
	}
	return TypeClassOther
}

// IsTemporalType reports whether the declared type carries a date block.
// It is independent of ClassifyType.
func IsTemporalType(declared string) bool {
	return containsAny(strings.ToLower(declared), temporalKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
