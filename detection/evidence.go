package detection

import (
	"fmt"
	"sort"
	"strings"
)

// Contributions at or above this mark are flagged as key events in the
// evidence timeline.
const keyEventThreshold = 0.15

// collectSignals assembles one evidence entry per fired detector, carrying
// the raw observed value, the threshold it crossed and the deviation, sorted
// most significant first.
func collectSignals(r Reading, pressure, flow float64, base Baseline,
	stat, rate, night DetectorOutput, pattern PatternResult, corr CorrelationResult,
	fusion FusionResult) []SignalEvidence {

	var signals []SignalEvidence
	add := func(source string, value, threshold, deviation float64, desc string) {
		signals = append(signals, SignalEvidence{
			Type:         source,
			Contribution: fusion.Contributions[source],
			Value:        value,
			Threshold:    threshold,
			Deviation:    deviation,
			Description:  desc,
			Timestamp:    r.TS,
			SensorID:     r.SensorID,
		})
	}

	if pattern.Score > 0 {
		add(SourcePattern, pressure, base.Pressure, pattern.PressureDropPct,
			fmt.Sprintf("pattern %s: pressure drop %.1f%%, flow increase %.1f%% vs baseline",
				pattern.Pattern, pattern.PressureDropPct, pattern.FlowIncreasePct))
	}
	if pattern.AbsoluteHit() {
		var hits []string
		if pattern.AbsoluteLow {
			hits = append(hits, fmt.Sprintf("pressure %.2f bar below %.1f bar", pressure, absLowPressure))
		}
		if pattern.AbsoluteHigh {
			hits = append(hits, fmt.Sprintf("flow %.1f L/min above %.0f L/min", flow, absHighFlow))
		}
		if pattern.AbsoluteDrop {
			hits = append(hits, fmt.Sprintf("drop of %.2f bar below baseline", base.Pressure-pressure))
		}
		add(SourceAbsolute, pressure, absLowPressure, base.Pressure-pressure,
			"absolute threshold exceeded: "+strings.Join(hits, ", "))
	}
	if stat.IsAnomaly {
		z := stat.Score * zScoreCeiling
		add(SourceStatistical, pressure, zThreshold, z,
			fmt.Sprintf("pressure %.2f bar is a statistical outlier vs 24h history (%s)", pressure, stat.Method))
	}
	if rate.IsAnomaly {
		observedRate := rate.Score * rateCeiling
		add(SourceRate, observedRate, rateThreshold, observedRate-rateThreshold,
			fmt.Sprintf("abrupt pressure change of %.2f bar/min over recent readings", observedRate))
	}
	if night.IsAnomaly {
		add(SourceNightFlow, flow, nightFlowLimit, flow-nightFlowLimit,
			fmt.Sprintf("flow %.1f L/min during the 02:00-04:00 minimum-usage window", flow))
	}
	if corr.Correlated {
		add(SourceCorrelation, corr.AgreementScore, correlationAgreement, corr.AgreementScore-correlationAgreement,
			fmt.Sprintf("%d of %d sensors in the area report abnormal pressure", corr.AbnormalCount, corr.TotalCount))
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Contribution > signals[j].Contribution
	})
	return signals
}

// buildExplanation renders the prose summary for a determination.
func buildExplanation(leakType LeakType, confidence float64, signals []SignalEvidence) string {
	if leakType == LeakNone {
		if len(signals) == 0 {
			return "No anomalous signals detected; readings within expected range."
		}
		descriptions := make([]string, len(signals))
		for i, s := range signals {
			descriptions[i] = s.Description
		}
		return fmt.Sprintf("No leak classified (%.1f%% confidence). Observations: %s",
			confidence*100, strings.Join(descriptions, "; "))
	}

	descriptions := make([]string, len(signals))
	for i, s := range signals {
		descriptions[i] = s.Description
	}
	return fmt.Sprintf("AI detected %s leak with %.1f%% confidence. Signals: %s",
		leakType, confidence*100, strings.Join(descriptions, "; "))
}

// buildRecommendations returns the severity-keyed action list, most urgent
// first.
func buildRecommendations(severity Severity) []string {
	switch severity {
	case SeverityCritical:
		return []string{
			"Dispatch repair crew immediately",
			"Isolate the affected pipe section",
			"Notify the operations manager",
		}
	case SeverityHigh:
		return []string{
			"Schedule field inspection within 4 hours",
			"Increase monitoring frequency for this sensor",
		}
	case SeverityMedium:
		return []string{
			"Continue monitoring",
			"Schedule routine inspection",
		}
	default:
		return []string{"Continue monitoring"}
	}
}

// BuildEvidence assembles the structured explainability record for a leak
// determination. Only called for results with is_leak true and confidence at
// or above the warning threshold.
func BuildEvidence(signals []SignalEvidence, fusion FusionResult, result DetectionResult, durationMS float64) *Evidence {
	breakdown := make(map[string]float64, len(fusion.Contributions))
	importance := make(map[string]float64, len(fusion.Contributions))
	var total float64
	for src, c := range fusion.Contributions {
		breakdown[src] = c
		total += c
	}
	for src, c := range fusion.Contributions {
		if total > 0 {
			importance[src] = c / total
		}
	}

	timeline := make([]TimelineEntry, 0, len(signals))
	for _, s := range signals {
		timeline = append(timeline, TimelineEntry{
			Type:         s.Type,
			Contribution: s.Contribution,
			Description:  s.Description,
			Timestamp:    s.Timestamp,
			KeyEvent:     s.Contribution >= keyEventThreshold,
		})
	}

	return &Evidence{
		Signals:             signals,
		ConfidenceBreakdown: breakdown,
		FusionWeights:       FusionWeights,
		Timeline:            timeline,
		DetectionMethod:     result.DetectionMethod,
		AnalysisDurationMS:  durationMS,
		Explanation:         result.Explanation,
		Recommendations:     result.Recommendations,
		FeatureImportance:   importance,
	}
}
