package detection

import "math"

const (
	normalFlow        = 50.0 // L/min assumed legitimate demand
	lossPressureRef   = 2.5  // bar below which loss accelerates
	burstTypeFactor   = 3.0
	classicTypeFactor = 2.0
)

// EstimateLoss converts flow, pressure, confidence and pattern into an
// estimated loss rate in litres per hour. Zero whenever no leak was
// classified.
func EstimateLoss(leakType LeakType, pattern string, pressure, flow, confidence float64) float64 {
	if leakType == LeakNone {
		return 0
	}

	baseFlowExcess := math.Max(flow-normalFlow, 0)
	pressureFactor := 1 + math.Max(lossPressureRef-pressure, 0)

	typeFactor := 1.0
	switch pattern {
	case PatternBurst:
		typeFactor = burstTypeFactor
	case PatternClassicLeak:
		typeFactor = classicTypeFactor
	}

	return math.Round(baseFlowExcess * pressureFactor * typeFactor * confidence * 60)
}
