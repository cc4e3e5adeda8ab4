package domain

import "fmt"

// InsightSeverity ranks how much attention an insight deserves.
type InsightSeverity string

const (
	SeverityInfo     InsightSeverity = "info"
	SeverityWarning  InsightSeverity = "warning"
	SeverityCritical InsightSeverity = "critical"
)

// Insight is one finding about a column profile.
type Insight struct {
	Kind     string          `json:"kind"`
	Severity InsightSeverity `json:"severity"`
	Message  string          `json:"message"`
}

// RuleBasedInsights derives findings from a profile using fixed thresholds.
// It always returns at least one insight.
func RuleBasedInsights(p ColumnProfile) []Insight {
	var out []Insight

	switch nullPct := p.NullPercentage; {
	case nullPct == 0:
		out = append(out, Insight{"perfect_completeness", SeverityInfo,
			"Column has no null values."})
	case nullPct < 5:
		out = append(out, Insight{"minor_nulls", SeverityWarning,
			fmt.Sprintf("%.2f%% null values detected; confirm nulls are expected.", nullPct)})
	case nullPct < 20:
		out = append(out, Insight{"moderate_nulls", SeverityWarning,
			fmt.Sprintf("%.2f%% null values present; investigate the source.", nullPct)})
	default:
		out = append(out, Insight{"high_nulls", SeverityCritical,
			fmt.Sprintf("%.2f%% null values; the column may have collection issues.", nullPct)})
	}

	if p.UniquePercentage > 99 {
		out = append(out, Insight{"potential_primary_key", SeverityInfo,
			"Nearly every value is unique; candidate primary key."})
	} else if p.UniquePercentage < 1 && p.DistinctCount < 10 {
		out = append(out, Insight{"low_cardinality", SeverityInfo,
			fmt.Sprintf("Only %d distinct values; good candidate for categorical analysis.", p.DistinctCount)})
	}

	if n := p.Numeric; n != nil {
		if n.Negatives > 0 {
			out = append(out, Insight{"negative_values", SeverityWarning,
				fmt.Sprintf("Found %d negative values; verify they are valid.", n.Negatives)})
		}
		total := p.TotalRows
		if total <= 0 {
			total = 1
		}
		if float64(n.Zeros) > float64(total)*0.1 {
			out = append(out, Insight{"many_zeros", SeverityWarning,
				fmt.Sprintf("%d zero values (%.1f%%); check whether zeros stand for missing data.",
					n.Zeros, float64(n.Zeros)/float64(total)*100)})
		}
		if n.Stddev > 0 && n.Max > n.Mean+3*n.Stddev {
			out = append(out, Insight{"outliers", SeverityWarning,
				"Maximum value is more than 3 standard deviations above the mean."})
		}
	}

	switch q := p.QualityScore(); {
	case q >= 95:
		out = append(out, Insight{"excellent_quality", SeverityInfo,
			fmt.Sprintf("Quality score %.0f/100.", q)})
	case q < 70:
		out = append(out, Insight{"quality_concerns", SeverityCritical,
			fmt.Sprintf("Quality score %.0f/100; improve completeness.", q)})
	}

	if len(out) == 0 {
		out = append(out, Insight{"reasonable", SeverityInfo, "No major quality issues detected."})
	}
	return out
}
