package detection

const (
	minCorrelationSensors = 2
	abnormalPressure      = 2.5 // bar, against an assumed 3.0 bar area baseline
	correlationAgreement  = 0.7
)

// CorrelationResult reports how many sibling sensors in the same DMA
// independently corroborate an anomaly.
type CorrelationResult struct {
	Correlated     bool    `json:"correlated"`
	AgreementScore float64 `json:"agreement_score"`
	AbnormalCount  int     `json:"abnormal_count"`
	TotalCount     int     `json:"total_count"`
}

// CorrelateArea checks a snapshot of recent sibling readings from the same
// area. A single degraded sensor is weak evidence; several simultaneously
// degraded sensors are not.
func CorrelateArea(siblings []Reading) CorrelationResult {
	if len(siblings) < minCorrelationSensors {
		return CorrelationResult{TotalCount: len(siblings)}
	}

	abnormal := 0
	for _, r := range siblings {
		if r.PressureValue() < abnormalPressure {
			abnormal++
		}
	}

	agreement := float64(abnormal) / float64(len(siblings))
	return CorrelationResult{
		Correlated:     agreement >= correlationAgreement,
		AgreementScore: agreement,
		AbnormalCount:  abnormal,
		TotalCount:     len(siblings),
	}
}
