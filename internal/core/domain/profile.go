package domain

import "slices"

// ColumnProfile is the decoded statistical record for one table column.
// The first fifteen fields are always present; String, Numeric and Dates are
// populated only when the declared type selects them.
type ColumnProfile struct {
	Catalog             string  `json:"catalog_name"`
	Schema              string  `json:"schema_name"`
	Table               string  `json:"table_name"`
	ColumnName          string  `json:"column_name"`
	DocumentedType      string  `json:"documented_type"`
	TotalRows           int64   `json:"total_rows"`
	NonNullCount        int64   `json:"non_null_count"`
	NullCount           int64   `json:"null_count"`
	NullPercentage      float64 `json:"null_percentage"`
	DistinctCount       int64   `json:"unique_count"`
	CardinalityPct      float64 `json:"cardinality_pct"`
	UniquePercentage    float64 `json:"unique_percentage"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
	IsCategorical       bool    `json:"is_categorical"`
	CapturedValuesCount int64   `json:"captured_values_count"`

	String  *StringStats  `json:"string_stats,omitempty"`
	Numeric *NumericStats `json:"numeric_stats,omitempty"`
	Dates   *DateRange    `json:"date_range,omitempty"`

	InferredType      string           `json:"inferred_type,omitempty"`
	TypeConfidencePct float64          `json:"type_confidence_pct,omitempty"`
	TopValues         []ValueFrequency `json:"top_values,omitempty"`
	AllValues         []ValueFrequency `json:"all_values,omitempty"`
	Patterns          []PatternStat    `json:"patterns,omitempty"`
	SmallestValues    []float64        `json:"smallest_values,omitempty"`
	LargestValues     []float64        `json:"largest_values,omitempty"`
	FirstSamples      []string         `json:"first_samples,omitempty"`
	RandomSamples     []string         `json:"random_samples,omitempty"`
}

// StringStats holds character-length statistics.
type StringStats struct {
	AvgLength    float64 `json:"avg_length"`
	MinLength    float64 `json:"min_length"`
	MaxLength    float64 `json:"max_length"`
	MedianLength float64 `json:"median_length"`
}

// NumericStats holds value distribution statistics.
type NumericStats struct {
	Min       float64 `json:"min_value"`
	Max       float64 `json:"max_value"`
	Mean      float64 `json:"mean_value"`
	Stddev    float64 `json:"stddev_value"`
	Median    float64 `json:"median_value"`
	P25       float64 `json:"p25_value"`
	P75       float64 `json:"p75_value"`
	P95       float64 `json:"p95_value"`
	P99       float64 `json:"p99_value"`
	Zeros     int64   `json:"zeros_count"`
	Negatives int64   `json:"negatives_count"`
	Infinites int64   `json:"infinite_count"`
}

// DateRange keeps the warehouse's rendering of the bounds untouched.
type DateRange struct {
	Min string `json:"min_date"`
	Max string `json:"max_date"`
}

// ValueFrequency is one entry of a top-K or all-values histogram.
type ValueFrequency struct {
	Value        any     `json:"value"`
	Frequency    int64   `json:"frequency"`
	FrequencyPct float64 `json:"frequency_pct"`
}

// PatternStat is a detected format pattern and how often it occurs.
type PatternStat struct {
	Pattern          string  `json:"pattern"`
	PatternCount     int64   `json:"pattern_count"`
	AvgPatternLength float64 `json:"avg_pattern_length"`
}

const maxNullPenalty = 30.0

// QualityScore is 100 minus the null percentage, with the penalty capped at 30.
func (p ColumnProfile) QualityScore() float64 {
	return 100 - min(p.NullPercentage, maxNullPenalty)
}

// Completeness is the share of non-null values, in percent.
func (p ColumnProfile) Completeness() float64 {
	return 100 - p.NullPercentage
}

// Cardinality classifies the column's distinct-value shape.
func (p ColumnProfile) Cardinality() CardinalityClass {
	return ClassifyCardinality(p.DistinctCount, p.NonNullCount, p.IsCategorical)
}

// Clone returns a deep copy; no slice or pointer is shared with p.
func (p ColumnProfile) Clone() ColumnProfile {
	c := p
	if p.String != nil {
		s := *p.String
		c.String = &s
	}
	if p.Numeric != nil {
		n := *p.Numeric
		c.Numeric = &n
	}
	if p.Dates != nil {
		d := *p.Dates
		c.Dates = &d
	}
	c.TopValues = slices.Clone(p.TopValues)
	c.AllValues = slices.Clone(p.AllValues)
	c.Patterns = slices.Clone(p.Patterns)
	c.SmallestValues = slices.Clone(p.SmallestValues)
	c.LargestValues = slices.Clone(p.LargestValues)
	c.FirstSamples = slices.Clone(p.FirstSamples)
	c.RandomSamples = slices.Clone(p.RandomSamples)
	return c
}

// CloneProfiles deep-copies a slice of profiles.
func CloneProfiles(in []ColumnProfile) []ColumnProfile {
	if in == nil {
		return nil
	}
	out := make([]ColumnProfile, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
