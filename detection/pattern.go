package detection

import "math"

// Leak patterns, ranked by severity. The rule table below is evaluated in
// order and the first match wins: the classes are not mutually exclusive by
// magnitude alone.
const (
	PatternBurst        = "burst_suspected"
	PatternClassicLeak  = "classic_leak"
	PatternProbableLeak = "probable_leak"
	PatternSlowLeak     = "slow_leak"
	PatternMinorAnomaly = "minor_anomaly"
	PatternPressureOnly = "pressure_drop_only"
	PatternNormal       = "normal"
)

// Absolute thresholds. Combining these with the relative tests prevents both
// false negatives from an already-degraded baseline and false positives from
// baselines computed over too-short history.
const (
	absLowPressure  = 2.0   // bar
	absHighFlow     = 100.0 // L/min
	absPressureDrop = 0.5   // bar below baseline
)

// PatternResult is the Pattern Classifier's output: the matched pattern, its
// raw score, whether the pattern itself indicates a leak, the computed
// deltas, and which absolute thresholds were exceeded.
type PatternResult struct {
	Pattern         string
	Score           float64
	IsLeak          bool
	PressureDropPct float64
	FlowIncreasePct float64
	AbsoluteLow     bool
	AbsoluteHigh    bool
	AbsoluteDrop    bool
}

// AbsoluteHit reports whether any absolute threshold was exceeded: a direct
// leak indicator independent of the matched pattern.
func (p PatternResult) AbsoluteHit() bool {
	return p.AbsoluteLow || p.AbsoluteHigh || p.AbsoluteDrop
}

type patternFeatures struct {
	pressure     float64
	flow         float64
	pressureDrop float64 // percent below baseline
	flowIncrease float64 // percent above baseline
	dropBar      float64 // baseline - current, bar
	absLow       bool
	absHigh      bool
	absDrop      bool
}

type patternRule struct {
	pattern string
	isLeak  bool
	match   func(f patternFeatures) bool
	score   func(f patternFeatures) float64
}

func fixedScore(s float64) func(patternFeatures) float64 {
	return func(patternFeatures) float64 { return s }
}

var patternRules = []patternRule{
	{
		pattern: PatternBurst, isLeak: true,
		match: func(f patternFeatures) bool {
			return (f.pressureDrop > 25 || f.absDrop) && (f.flowIncrease > 50 || f.absHigh)
		},
		score: fixedScore(0.95),
	},
	{
		pattern: PatternBurst, isLeak: true,
		match: func(f patternFeatures) bool {
			return f.pressure < 1.5 && f.flow > 120
		},
		score: fixedScore(0.92),
	},
	{
		pattern: PatternClassicLeak, isLeak: true,
		match: func(f patternFeatures) bool {
			return (f.pressureDrop > 10 || f.dropBar > 0.3) && (f.flowIncrease > 15 || f.flow > 80)
		},
		score: func(f patternFeatures) float64 {
			return math.Max(math.Min((f.pressureDrop+f.flowIncrease)/60, 0.9), 0.6)
		},
	},
	{
		pattern: PatternProbableLeak, isLeak: true,
		match: func(f patternFeatures) bool {
			return f.absLow && f.flow > 60
		},
		score: fixedScore(0.75),
	},
	{
		pattern: PatternSlowLeak, isLeak: true,
		match: func(f patternFeatures) bool {
			return f.pressureDrop > 5 && f.flowIncrease > 5
		},
		score: func(f patternFeatures) float64 {
			return math.Max(math.Min((f.pressureDrop+f.flowIncrease)/40, 0.7), 0.4)
		},
	},
	{
		pattern: PatternMinorAnomaly, isLeak: false,
		match: func(f patternFeatures) bool {
			return f.pressureDrop > 3 || f.dropBar > 0.2
		},
		score: fixedScore(0.25),
	},
	{
		// Likely high demand rather than a leak.
		pattern: PatternPressureOnly, isLeak: false,
		match: func(f patternFeatures) bool {
			return f.pressureDrop > 15 && f.flowIncrease < 5
		},
		score: fixedScore(0.3),
	},
	{
		pattern: PatternNormal, isLeak: false,
		match:   func(patternFeatures) bool { return true },
		score:   fixedScore(0),
	},
}

// ClassifyPattern maps the current pressure/flow against the baseline to a
// discrete leak pattern via the ordered rule table.
func ClassifyPattern(pressure, flow float64, base Baseline) PatternResult {
	f := patternFeatures{
		pressure:     pressure,
		flow:         flow,
		pressureDrop: (base.Pressure - pressure) / math.Max(base.Pressure, 0.1) * 100,
		flowIncrease: (flow - base.Flow) / math.Max(base.Flow, 1) * 100,
		dropBar:      base.Pressure - pressure,
		absLow:       pressure < absLowPressure,
		absHigh:      flow > absHighFlow,
		absDrop:      base.Pressure-pressure > absPressureDrop,
	}

	for _, rule := range patternRules {
		if rule.match(f) {
			return PatternResult{
				Pattern:         rule.pattern,
				Score:           rule.score(f),
				IsLeak:          rule.isLeak,
				PressureDropPct: f.pressureDrop,
				FlowIncreasePct: f.flowIncrease,
				AbsoluteLow:     f.absLow,
				AbsoluteHigh:    f.absHigh,
				AbsoluteDrop:    f.absDrop,
			}
		}
	}

	// Unreachable: the last rule always matches.
	return PatternResult{Pattern: PatternNormal}
}
