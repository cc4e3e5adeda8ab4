package domain

import (
	"cmp"
	"slices"
)

// Positional profile row layout:
//
//	0-14   fixed prefix (catalog ... captured_values_count)
//	       string block (4) | numeric block (12) | nothing, by ClassifyType
//	       date block (2) when IsTemporalType
//	       inferred_type, type_confidence_pct
//	       top_values, all_values        JSON [{value, frequency, frequency_pct}]
//	       patterns                      JSON [{pattern, pattern_count, avg_pattern_length}]
//	       smallest_values, largest_values  JSON [{value, rn}]
//	       first_samples, random_samples JSON [{sample_value, sample_rn}]
//
// Every field is read only when the row is long enough to hold it. A selected
// block always advances the cursor by its full width.
const defaultRank = 999

// rowCursor walks a positional row. Reads past the end report ok=false.
type rowCursor struct {
	row []any
	pos int
}

func (c *rowCursor) next() (any, bool) {
	i := c.pos
	c.pos++
	if i >= len(c.row) {
		return nil, false
	}
	return c.row[i], true
}

func (c *rowCursor) readFloat(dst *float64) {
	if v, ok := c.next(); ok {
		*dst = ToFloat(v, 0)
	}
}

func (c *rowCursor) readInt(dst *int64) {
	if v, ok := c.next(); ok {
		*dst = ToInt(v, 0)
	}
}

func (c *rowCursor) readString(dst *string) {
	if v, ok := c.next(); ok {
		*dst = ToString(v)
	}
}

func (c *rowCursor) has() bool { return c.pos < len(c.row) }

// DecodeProfileRow rebuilds a ColumnProfile from a positional row. It never
// fails: short rows give partial records and malformed JSON sub-fields give
// empty lists. typeHint is used when the row carries no documented type.
func DecodeProfileRow(row []any, typeHint string) ColumnProfile {
	var p ColumnProfile
	c := &rowCursor{row: row}

	c.readString(&p.Catalog)
	c.readString(&p.Schema)
	c.readString(&p.Table)
	c.readString(&p.ColumnName)
	c.readString(&p.DocumentedType)
	c.readInt(&p.TotalRows)
	c.readInt(&p.NonNullCount)
	c.readInt(&p.NullCount)
	c.readFloat(&p.NullPercentage)
	c.readInt(&p.DistinctCount)
	c.readFloat(&p.CardinalityPct)
	c.readFloat(&p.UniquePercentage)
	c.readFloat(&p.DuplicatePercentage)
	if v, ok := c.next(); ok {
		p.IsCategorical = ToBool(v)
	}
	c.readInt(&p.CapturedValuesCount)

	declared := p.DocumentedType
	if declared == "" {
		declared = typeHint
	}

	switch ClassifyType(declared) {
	case TypeClassString:
		var st StringStats
		if c.has() {
			p.String = &st
		}
		c.readFloat(&st.AvgLength)
		c.readFloat(&st.MinLength)
		c.readFloat(&st.MaxLength)
		c.readFloat(&st.MedianLength)
	case TypeClassNumeric:
		var n NumericStats
		if c.has() {
			p.Numeric = &n
		}
		c.readFloat(&n.Min)
		c.readFloat(&n.Max)
		c.readFloat(&n.Mean)
		c.readFloat(&n.Stddev)
		c.readFloat(&n.Median)
		c.readFloat(&n.P25)
		c.readFloat(&n.P75)
		c.readFloat(&n.P95)
		c.readFloat(&n.P99)
		c.readInt(&n.Zeros)
		c.readInt(&n.Negatives)
		c.readInt(&n.Infinites)
	}

	if IsTemporalType(declared) {
		var d DateRange
		if c.has() {
			p.Dates = &d
		}
		c.readString(&d.Min)
		c.readString(&d.Max)
	}

	c.readString(&p.InferredType)
	c.readFloat(&p.TypeConfidencePct)

	if v, ok := c.next(); ok {
		p.TopValues = decodeFrequencies(v)
	}
	if v, ok := c.next(); ok {
		p.AllValues = decodeFrequencies(v)
	}
	if v, ok := c.next(); ok {
		p.Patterns = decodePatterns(v)
	}
	if v, ok := c.next(); ok {
		p.SmallestValues = decodeRankedNumbers(v)
	}
	if v, ok := c.next(); ok {
		p.LargestValues = decodeRankedNumbers(v)
	}
	if v, ok := c.next(); ok {
		p.FirstSamples = decodeRankedSamples(v)
	}
	if v, ok := c.next(); ok {
		p.RandomSamples = decodeRankedSamples(v)
	}

	return p
}

func decodeFrequencies(v any) []ValueFrequency {
	items, _ := DecodeJSONList(v)
	out := make([]ValueFrequency, 0, len(items))
	for _, item := range items {
		out = append(out, ValueFrequency{
			Value:        item["value"],
			Frequency:    ToInt(item["frequency"], 0),
			FrequencyPct: ToFloat(item["frequency_pct"], 0),
		})
	}
	return out
}

func decodePatterns(v any) []PatternStat {
	items, _ := DecodeJSONList(v)
	out := make([]PatternStat, 0, len(items))
	for _, item := range items {
		out = append(out, PatternStat{
			Pattern:          ToString(item["pattern"]),
			PatternCount:     ToInt(item["pattern_count"], 0),
			AvgPatternLength: ToFloat(item["avg_pattern_length"], 0),
		})
	}
	return out
}

type rankedItem struct {
	rank  float64
	value any
}

// rankItems keeps items whose valueKey is non-null and orders them by
// ascending rankKey. Missing ranks sort as 999; ties keep input order.
func rankItems(v any, valueKey, rankKey string) []rankedItem {
	items, _ := DecodeJSONList(v)
	ranked := make([]rankedItem, 0, len(items))
	for _, item := range items {
		val, ok := item[valueKey]
		if !ok || val == nil {
			continue
		}
		ranked = append(ranked, rankedItem{rank: ToFloat(item[rankKey], defaultRank), value: val})
	}
	slices.SortStableFunc(ranked, func(a, b rankedItem) int {
		return cmp.Compare(a.rank, b.rank)
	})
	return ranked
}

func decodeRankedNumbers(v any) []float64 {
	ranked := rankItems(v, "value", "rn")
	out := make([]float64, len(ranked))
	for i, r := range ranked {
		out[i] = ToFloat(r.value, 0)
	}
	return out
}

func decodeRankedSamples(v any) []string {
	ranked := rankItems(v, "sample_value", "sample_rn")
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = ToString(r.value)
	}
	return out
}
