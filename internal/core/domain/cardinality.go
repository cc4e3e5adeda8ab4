package domain

// CardinalityClass describes the distinct-value shape of a profiled column.
type CardinalityClass string

const (
	CardinalityEmpty           CardinalityClass = "empty"
	CardinalityUnique          CardinalityClass = "unique"
	CardinalityNearUnique      CardinalityClass = "near_unique"
	CardinalityHighCardinality CardinalityClass = "high_cardinality"
	CardinalityLowCardinality  CardinalityClass = "low_cardinality"
	CardinalityEnumLike        CardinalityClass = "enum_like"
)

const (
	nearUniqueRatio = 0.9
	enumLikeMax     = 20
	lowCardMax      = 200
)

// ClassifyCardinality buckets a column by its distinct count over non-null
// values. The warehouse's own categorical flag forces EnumLike unless every
// value is distinct.
func ClassifyCardinality(distinct, nonNull int64, categorical bool) CardinalityClass {
	if nonNull <= 0 {
		return CardinalityEmpty
	}
	if distinct >= nonNull {
		return CardinalityUnique
	}
	if float64(distinct)/float64(nonNull) >= nearUniqueRatio {
		return CardinalityNearUnique
	}

	switch {
	case categorical, distinct <= enumLikeMax:
		return CardinalityEnumLike
	case distinct <= lowCardMax:
		return CardinalityLowCardinality
	default:
		return CardinalityHighCardinality
	}
}
