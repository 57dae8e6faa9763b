package detection

import (
	"fmt"
	"math"
)

// Options tune engine behavior per invocation.
//
// MinWarmupSamples gates the Pattern Classifier and Rate-of-Change detector
// on sensors with little history. The default of 0 matches the historical
// behavior: a sensor's very first reading can classify a leak purely from
// absolute thresholds, which is a known false-positive risk on cold start.
type Options struct {
	MinWarmupSamples int
}

// Input is everything one invocation needs: the current reading, up to 24h
// of the sensor's own history in ascending time order, and a snapshot of
// sibling readings from the same DMA taken within the last few minutes.
type Input struct {
	Reading  Reading
	History  []Reading
	Siblings []Reading
	Options  Options
}

// Output is the engine's result. Evidence is nil unless a leak was
// classified with confidence at or above the warning threshold. Evidence's
// analysis duration is left zero for the caller to fill in; everything else
// is a pure function of Input.
type Output struct {
	Result   DetectionResult
	Baseline Baseline
	Evidence *Evidence
}

// Analyze runs the full detection pipeline on one reading. It holds no
// state, performs no I/O and uses no clock: identical inputs always yield
// identical results.
func Analyze(in Input) Output {
	pressure := in.Reading.PressureValue()
	flow := in.Reading.FlowValue()

	base := EstimateBaseline(in.History)

	warm := in.Options.MinWarmupSamples == 0 || len(in.History) >= in.Options.MinWarmupSamples

	stat := StatisticalCheck(pressure, pressureHistory(in.History))

	var rate DetectorOutput
	var pattern PatternResult
	if warm {
		rate = RateOfChangeCheck(pressureSeries(in.History, in.Reading))
		pattern = ClassifyPattern(pressure, flow, base)
	} else {
		rate = DetectorOutput{Method: MethodInsufficientData}
		pattern = PatternResult{Pattern: PatternNormal}
	}

	night := NightFlowCheck(flow, in.Reading.TS)
	corr := CorrelateArea(in.Siblings)

	fusion := FuseConfidence(stat, rate, night, pattern, corr)
	confidence := math.Round(fusion.Confidence*1000) / 1000

	leakType := ClassifyLeak(confidence, pattern.Pattern, fusion.DirectIndicator)
	severity := ClassifySeverity(confidence, pattern.Pattern)

	loss := EstimateLoss(leakType, pattern.Pattern, pressure, flow, confidence)

	signals := collectSignals(in.Reading, pressure, flow, base, stat, rate, night, pattern, corr, fusion)
	descriptions := make([]string, len(signals))
	for i, s := range signals {
		descriptions[i] = s.Description
	}

	result := DetectionResult{
		IsLeak:           leakType != LeakNone,
		LeakType:         leakType,
		Confidence:       confidence,
		Severity:         severity,
		DetectionMethod:  fusion.DominantSource(),
		Signals:          descriptions,
		Recommendations:  buildRecommendations(severity),
		EstimatedLossLPH: loss,
		Location:         locationLabel(in.Reading),
	}
	result.Explanation = buildExplanation(leakType, confidence, signals)

	out := Output{Result: result, Baseline: base}
	if result.IsLeak && confidence >= WarningThreshold {
		out.Evidence = BuildEvidence(signals, fusion, result, 0)
	}
	return out
}

func locationLabel(r Reading) string {
	dma := r.DMAID
	if dma == "" {
		dma = DefaultDMAID
	}
	return fmt.Sprintf("%s / %s", dma, r.SensorID)
}

// pressureHistory extracts the pressure values from readings that carry one.
func pressureHistory(history []Reading) []float64 {
	values := make([]float64, 0, len(history))
	for _, r := range history {
		if r.Pressure != nil {
			values = append(values, *r.Pressure)
		}
	}
	return values
}

// pressureSeries builds the (value, timestamp) series for the rate detector:
// historical readings with a pressure plus the current one.
func pressureSeries(history []Reading, current Reading) []PressurePoint {
	points := make([]PressurePoint, 0, len(history)+1)
	for _, r := range history {
		if r.Pressure != nil {
			points = append(points, PressurePoint{Value: *r.Pressure, TS: r.TS})
		}
	}
	points = append(points, PressurePoint{Value: current.PressureValue(), TS: current.TS})
	return points
}
