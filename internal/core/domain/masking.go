package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaskType names how a sensitive column's values are hidden. The zero value
// means the column is not masked.
type MaskType string

const (
	MaskRedact  MaskType = "redact"
	MaskHash    MaskType = "hash"
	MaskPartial MaskType = "partial"
	MaskNull    MaskType = "null"
)

const (
	redacted       = "***"
	partialVisible = 4
)

// maskers never see nil; NULL stays NULL under every mask.
var maskers = map[MaskType]func(any) any{
	MaskRedact:  func(any) any { return redacted },
	MaskHash:    func(v any) any { return hashValue(v) },
	MaskPartial: func(v any) any { return partialValue(v) },
	MaskNull:    func(any) any { return nil },
}

// Valid reports whether m is a known strategy or the empty "no mask" value.
func (m MaskType) Valid() bool {
	_, ok := maskers[m]
	return ok || m == ""
}

// ApplyMask returns value hidden according to maskType. Hash and partial
// masks turn any value into its string rendering first, so 12345 and
// "12345" mask identically. Unknown types leave value unchanged.
func ApplyMask(value any, maskType MaskType) any {
	fn, ok := maskers[maskType]
	if !ok || value == nil {
		return value
	}
	return fn(value)
}

// hashValue is the hex SHA-256 of the value's string rendering.
func hashValue(v any) string {
	sum := sha256.Sum256([]byte(ToString(v)))
	return hex.EncodeToString(sum[:])
}

// partialValue keeps the last few runes and stars out the rest. Values too
// short to hide anything get a fixed prefix instead.
func partialValue(v any) string {
	runes := []rune(ToString(v))
	if len(runes) <= partialVisible {
		return redacted + string(runes)
	}
	hidden := len(runes) - partialVisible
	return strings.Repeat("*", hidden) + string(runes[hidden:])
}

// MaskRows masks name-keyed statement rows in place. Rows carry no table,
// so only bare column names in masks can match.
func MaskRows(rows []map[string]any, masks map[string]MaskType) {
	if len(masks) == 0 {
		return
	}
	for _, row := range rows {
		for col, val := range row {
			if m, ok := masks[col]; ok {
				row[col] = ApplyMask(val, m)
			}
		}
	}
}

// QualifiedColumn is the mask key for a column of a specific table.
func QualifiedColumn(catalog, schema, table, column string) string {
	return catalog + "." + schema + "." + table + "." + column
}

// MaskFor returns the mask for a profile, preferring the fully qualified key
// over the bare column name.
func MaskFor(masks map[string]MaskType, p ColumnProfile) MaskType {
	if len(masks) == 0 {
		return ""
	}
	if m, ok := masks[QualifiedColumn(p.Catalog, p.Schema, p.Table, p.ColumnName)]; ok {
		return m
	}
	return masks[p.ColumnName]
}

// MaskProfile hides the raw values a profile leaks: histogram values,
// samples, and the extreme-value lists. Aggregate statistics are kept.
// Extremes are numeric and cannot carry a masked rendering, so they are
// dropped.
func MaskProfile(p *ColumnProfile, maskType MaskType) {
	if p == nil || maskType == "" {
		return
	}
	for i := range p.TopValues {
		p.TopValues[i].Value = ApplyMask(p.TopValues[i].Value, maskType)
	}
	for i := range p.AllValues {
		p.AllValues[i].Value = ApplyMask(p.AllValues[i].Value, maskType)
	}
	p.FirstSamples = maskStrings(p.FirstSamples, maskType)
	p.RandomSamples = maskStrings(p.RandomSamples, maskType)
	p.SmallestValues = nil
	p.LargestValues = nil
	if p.Numeric != nil {
		p.Numeric.Min, p.Numeric.Max = 0, 0
	}
	p.Dates = nil
}

func maskStrings(in []string, maskType MaskType) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = ToString(ApplyMask(s, maskType))
	}
	return out
}
