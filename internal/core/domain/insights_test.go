package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func insightKinds(in []Insight) []string {
	kinds := make([]string, len(in))
	for i, x := range in {
		kinds[i] = x.Kind
	}
	return kinds
}

func TestRuleBasedInsights(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		profile ColumnProfile
		want    []string
	}{
		{
			name:    "clean primary key",
			profile: ColumnProfile{NullPercentage: 0, UniquePercentage: 100},
			want:    []string{"perfect_completeness", "potential_primary_key", "excellent_quality"},
		},
		{
			name:    "minor nulls low cardinality",
			profile: ColumnProfile{NullPercentage: 2, UniquePercentage: 0.1, DistinctCount: 3},
			want:    []string{"minor_nulls", "low_cardinality", "excellent_quality"},
		},
		{
			name:    "moderate nulls",
			profile: ColumnProfile{NullPercentage: 10, UniquePercentage: 50},
			want:    []string{"moderate_nulls"},
		},
		{
			name:    "high nulls",
			profile: ColumnProfile{NullPercentage: 45, UniquePercentage: 50},
			want:    []string{"high_nulls"},
		},
		{
			name: "numeric anomalies",
			profile: ColumnProfile{
				NullPercentage:   10,
				UniquePercentage: 50,
				TotalRows:        100,
				Numeric:          &NumericStats{Negatives: 4, Zeros: 20, Mean: 10, Stddev: 2, Max: 50},
			},
			want: []string{"moderate_nulls", "negative_values", "many_zeros", "outliers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, insightKinds(RuleBasedInsights(tt.profile)))
		})
	}
}

func TestRuleBasedInsights_SeverityOfHighNulls(t *testing.T) {
	t.Parallel()
	out := RuleBasedInsights(ColumnProfile{NullPercentage: 50, UniquePercentage: 50})
	assert.Equal(t, SeverityCritical, out[0].Severity)
	assert.Contains(t, out[0].Message, "50.00%")
}
