package detection

// EstimateBaseline computes a sensor's expected pressure and flow as the
// arithmetic mean of each field across its trailing history. Readings that
// lack a field are skipped for that field; if no reading carries it, the
// neutral default is used. Always returns a value.
func EstimateBaseline(history []Reading) Baseline {
	var pSum, fSum float64
	var pCount, fCount int

	for _, r := range history {
		if r.Pressure != nil {
			pSum += *r.Pressure
			pCount++
		}
		if r.FlowRate != nil {
			fSum += *r.FlowRate
			fCount++
		}
	}

	b := Baseline{Pressure: DefaultPressure, Flow: DefaultFlow}
	if pCount > 0 {
		b.Pressure = pSum / float64(pCount)
	}
	if fCount > 0 {
		b.Flow = fSum / float64(fCount)
	}
	return b
}
