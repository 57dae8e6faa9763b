package detection

import "math"

// Contribution source names. Order matters: it breaks ties when picking the
// dominant detection method.
const (
	SourcePattern     = "pattern"
	SourceAbsolute    = "absolute_threshold"
	SourceStatistical = "statistical"
	SourceRate        = "rate_of_change"
	SourceNightFlow   = "night_flow"
	SourceCorrelation = "correlation"
)

var sourceOrder = []string{
	SourcePattern,
	SourceAbsolute,
	SourceStatistical,
	SourceRate,
	SourceNightFlow,
	SourceCorrelation,
}

// FusionWeights are the fixed per-detector weights applied to each [0,1]
// score when the detector fires. The absolute-threshold weight is a flat
// add, not scaled by a score.
var FusionWeights = map[string]float64{
	SourceStatistical: 0.20,
	SourceRate:        0.15,
	SourcePattern:     0.40,
	SourceAbsolute:    0.25,
	SourceNightFlow:   0.10,
	SourceCorrelation: 0.10,
}

// Non-leak pattern scores still contribute at a reduced weight so that
// near-threshold situations accumulate some signal.
const nonLeakPatternWeight = 0.15

const maxConfidence = 0.99

// FusionResult carries the aggregated confidence plus the per-source
// contributions that produced it.
type FusionResult struct {
	Confidence      float64
	Contributions   map[string]float64
	DirectIndicator bool
}

// floorRules raise confidence when a structural match is stronger evidence
// than the additive sum suggests (a short-history sensor may leave the other
// detectors with nothing to add). Evaluated in this exact order: reordering
// changes classification at the boundaries.
type floorRule struct {
	name    string
	applies func(pattern PatternResult, direct bool) bool
	floor   float64
}

var floorRules = []floorRule{
	{
		name:    "direct_indicator",
		applies: func(_ PatternResult, direct bool) bool { return direct },
		floor:   0.50,
	},
	{
		name:    PatternBurst,
		applies: func(p PatternResult, _ bool) bool { return p.Pattern == PatternBurst },
		floor:   0.85,
	},
	{
		name:    PatternClassicLeak,
		applies: func(p PatternResult, _ bool) bool { return p.Pattern == PatternClassicLeak },
		floor:   0.70,
	},
	{
		name:    PatternProbableLeak,
		applies: func(p PatternResult, _ bool) bool { return p.Pattern == PatternProbableLeak },
		floor:   0.60,
	},
}

// FuseConfidence combines the detectors' outputs into one bounded confidence
// score: weighted sum of active contributions, clamp to maxConfidence, then
// the ordered floor rules.
func FuseConfidence(stat, rate, night DetectorOutput, pattern PatternResult, corr CorrelationResult) FusionResult {
	contributions := map[string]float64{}

	if stat.IsAnomaly {
		contributions[SourceStatistical] = stat.Score * FusionWeights[SourceStatistical]
	}
	if rate.IsAnomaly {
		contributions[SourceRate] = rate.Score * FusionWeights[SourceRate]
	}
	if pattern.IsLeak {
		contributions[SourcePattern] = pattern.Score * FusionWeights[SourcePattern]
	} else if pattern.Score > 0 {
		contributions[SourcePattern] = pattern.Score * nonLeakPatternWeight
	}
	if pattern.AbsoluteHit() {
		contributions[SourceAbsolute] = FusionWeights[SourceAbsolute]
	}
	if night.IsAnomaly {
		contributions[SourceNightFlow] = night.Score * FusionWeights[SourceNightFlow]
	}
	if corr.Correlated {
		contributions[SourceCorrelation] = corr.AgreementScore * FusionWeights[SourceCorrelation]
	}

	confidence := 0.0
	for _, c := range contributions {
		confidence += c
	}
	confidence = math.Min(confidence, maxConfidence)

	direct := pattern.IsLeak || pattern.AbsoluteHit()
	for _, rule := range floorRules {
		if rule.applies(pattern, direct) && confidence < rule.floor {
			confidence = rule.floor
		}
	}

	return FusionResult{
		Confidence:      confidence,
		Contributions:   contributions,
		DirectIndicator: direct,
	}
}

// DominantSource returns the name of the largest contribution, breaking ties
// by the fixed source order. With no contributions it returns "none".
func (f FusionResult) DominantSource() string {
	best := MethodNone
	bestVal := 0.0
	for _, src := range sourceOrder {
		if c, ok := f.Contributions[src]; ok && c > bestVal {
			best = src
			bestVal = c
		}
	}
	return best
}
