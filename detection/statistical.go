package detection

import (
	"math"
	"sort"
)

const (
	minStatSamples = 10
	zThreshold     = 2.5
	iqrFence       = 1.5
	zScoreCeiling  = 5.0
)

// StatisticalCheck tests the current pressure against the sensor's pressure
// history using a z-score and an IQR fence. Below minStatSamples points it
// degrades to insufficient_data instead of guessing.
func StatisticalCheck(current float64, history []float64) DetectorOutput {
	if len(history) < minStatSamples {
		return DetectorOutput{Method: MethodInsufficientData}
	}

	mean, stdDev := meanStdDev(history)

	z := 0.0
	if stdDev > 0 {
		z = math.Abs(current-mean) / stdDev
	}

	sorted := append([]float64(nil), history...)
	sort.Float64s(sorted)
	q1 := sorted[int(float64(len(sorted))*0.25)]
	q3 := sorted[int(float64(len(sorted))*0.75)]
	iqr := q3 - q1
	iqrOutlier := current < q1-iqrFence*iqr || current > q3+iqrFence*iqr

	out := DetectorOutput{
		IsAnomaly: z > zThreshold || iqrOutlier,
		Score:     math.Min(z/zScoreCeiling, 1.0),
	}
	switch {
	case z > zThreshold:
		out.Method = MethodZScore
	case iqrOutlier:
		out.Method = MethodIQR
	default:
		out.Method = MethodNone
	}
	return out
}

// meanStdDev returns the arithmetic mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
