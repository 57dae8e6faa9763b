package detection

import (
	"math"
	"time"
)

const (
	nightWindowStart = 2
	nightWindowEnd   = 4
	nightFlowLimit   = 5.0  // L/min considered legitimate overnight
	nightFlowCeiling = 15.0
)

// NightFlowCheck flags non-zero flow during the 02:00-04:00 minimum-usage
// window, when legitimate demand should be near zero. Outside that window
// the detector is dormant and never fires.
func NightFlowCheck(flow float64, ts time.Time) DetectorOutput {
	hour := ts.Hour()
	if hour < nightWindowStart || hour > nightWindowEnd {
		return DetectorOutput{Method: MethodNone}
	}

	out := DetectorOutput{
		IsAnomaly: flow > nightFlowLimit,
		Score:     math.Min(flow/nightFlowCeiling, 1.0),
		Method:    MethodNone,
	}
	if out.IsAnomaly {
		out.Method = MethodNightFlow
	}
	return out
}
