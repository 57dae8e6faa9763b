package detection

import (
	"math"
	"time"
)

const (
	rateWindow    = 5
	rateThreshold = 0.1 // bar/min
	rateCeiling   = 0.2
)

// PressurePoint is one (value, timestamp) sample of the pressure series.
type PressurePoint struct {
	Value float64
	TS    time.Time
}

// RateOfChangeCheck looks at the last rateWindow pressure points and flags
// abrupt swings. Points must be chronologically ordered. With fewer than two
// points, or a non-positive elapsed interval, it reports no anomaly.
func RateOfChangeCheck(points []PressurePoint) DetectorOutput {
	if len(points) < 2 {
		return DetectorOutput{Method: MethodInsufficientData}
	}
	if len(points) > rateWindow {
		points = points[len(points)-rateWindow:]
	}

	first := points[0]
	last := points[len(points)-1]

	elapsedMin := last.TS.Sub(first.TS).Minutes()
	if elapsedMin <= 0 {
		return DetectorOutput{Method: MethodNone}
	}

	rate := math.Abs(last.Value-first.Value) / elapsedMin

	out := DetectorOutput{
		IsAnomaly: rate > rateThreshold,
		Score:     math.Min(rate/rateCeiling, 1.0),
		Method:    MethodNone,
	}
	if out.IsAnomaly {
		out.Method = MethodRateOfChange
	}
	return out
}
