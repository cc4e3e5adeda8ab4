package domain

import (
	"cmp"
	"math"
	"slices"
)

// CorrelationStrength buckets the absolute value of a Pearson coefficient.
type CorrelationStrength string

const (
	CorrelationVeryStrong CorrelationStrength = "Very Strong"
	CorrelationStrong     CorrelationStrength = "Strong"
	CorrelationModerate   CorrelationStrength = "Moderate"
	CorrelationWeak       CorrelationStrength = "Weak"
	CorrelationVeryWeak   CorrelationStrength = "Very Weak"
)

// ClassifyCorrelation maps a coefficient to its strength bucket.
func ClassifyCorrelation(r float64) CorrelationStrength {
	a := math.Abs(r)
	switch {
	case a >= 0.8:
		return CorrelationVeryStrong
	case a >= 0.6:
		return CorrelationStrong
	case a >= 0.4:
		return CorrelationModerate
	case a >= 0.2:
		return CorrelationWeak
	default:
		return CorrelationVeryWeak
	}
}

// Correlation is the coefficient for one column pair.
type Correlation struct {
	Field1      string              `json:"field1"`
	Field2      string              `json:"field2"`
	Coefficient float64             `json:"correlation"`
	Strength    CorrelationStrength `json:"strength"`
}

// ColumnPair is an unordered pair taken from the upper triangle of a field list.
type ColumnPair struct {
	First, Second string
}

// UpperTrianglePairs returns every (fields[i], fields[j]) with i < j.
func UpperTrianglePairs(fields []string) []ColumnPair {
	var pairs []ColumnPair
	for i := range fields {
		for j := i + 1; j < len(fields); j++ {
			pairs = append(pairs, ColumnPair{First: fields[i], Second: fields[j]})
		}
	}
	return pairs
}

const (
	compositeKeyMinUniqueness = 95.0
	compositeKeyThreshold     = 99.9
	maxCompositeKeys          = 10
)

// CompositeKey is a column pair whose combined values are (nearly) unique.
type CompositeKey struct {
	Columns        []string `json:"columns"`
	UniqueCount    int64    `json:"unique_count"`
	TotalRows      int64    `json:"total_rows"`
	UniquenessPct  float64  `json:"uniqueness_pct"`
	IsPotentialKey bool     `json:"is_potential_key"`
}

// NewCompositeKeyCandidate evaluates a pair. ok is false when the pair is
// less than 95% unique and should not be reported.
func NewCompositeKeyCandidate(pair ColumnPair, uniqueCount, totalRows int64) (CompositeKey, bool) {
	var pct float64
	if totalRows > 0 {
		pct = float64(uniqueCount) / float64(totalRows) * 100
	}
	if pct < compositeKeyMinUniqueness {
		return CompositeKey{}, false
	}
	return CompositeKey{
		Columns:        []string{pair.First, pair.Second},
		UniqueCount:    uniqueCount,
		TotalRows:      totalRows,
		UniquenessPct:  math.Round(pct*100) / 100,
		IsPotentialKey: pct >= compositeKeyThreshold,
	}, true
}

// RankCompositeKeys sorts candidates by uniqueness, highest first, and keeps
// the top ten.
func RankCompositeKeys(keys []CompositeKey) []CompositeKey {
	slices.SortStableFunc(keys, func(a, b CompositeKey) int {
		return cmp.Compare(b.UniquenessPct, a.UniquenessPct)
	})
	if len(keys) > maxCompositeKeys {
		keys = keys[:maxCompositeKeys]
	}
	return keys
}

// ConditionalStat summarises a numeric column within one category.
type ConditionalStat struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Mean     float64 `json:"mean"`
	Stddev   float64 `json:"stddev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
}

// DayCount is one bucket of a day-of-week distribution.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// HourCount is one bucket of an hour-of-day distribution.
type HourCount struct {
	Hour  int64 `json:"hour"`
	Count int64 `json:"count"`
}

// TemporalProfile holds the time-of-week distributions of a temporal column.
type TemporalProfile struct {
	DayOfWeek []DayCount  `json:"day_of_week"`
	HourOfDay []HourCount `json:"hour_of_day"`
}
