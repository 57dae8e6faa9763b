package detection

// Confidence thresholds for classification. Both mappings also consult the
// pattern identity so a short-history sensor with a clear structural match
// is never under-classified.
const (
	confirmedThreshold = 0.85
	probableThreshold  = 0.70

	// WarningThreshold is the confidence at which a leak determination is
	// considered actionable: evidence is recorded and alerting collaborators
	// are expected to create leak/alert records.
	WarningThreshold = 0.50
)

// ClassifyLeak maps aggregated confidence and pattern identity to a leak
// type via ordered thresholds. direct reports whether any direct leak
// indicator fired.
func ClassifyLeak(confidence float64, pattern string, direct bool) LeakType {
	switch {
	case confidence >= confirmedThreshold || pattern == PatternBurst:
		return LeakConfirmed
	case confidence >= probableThreshold || pattern == PatternClassicLeak:
		return LeakProbable
	case confidence >= WarningThreshold || direct:
		return LeakSuspected
	default:
		return LeakNone
	}
}

// ClassifySeverity maps confidence and pattern identity to a severity.
func ClassifySeverity(confidence float64, pattern string) Severity {
	switch {
	case confidence >= confirmedThreshold || pattern == PatternBurst:
		return SeverityCritical
	case confidence >= probableThreshold || pattern == PatternClassicLeak:
		return SeverityHigh
	case confidence >= WarningThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
