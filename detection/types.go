// Package detection implements the leak-detection scoring engine: a
// deterministic, stateless pipeline that fuses several independent anomaly
// detectors over a sensor's trailing history into a classified, explainable
// leak determination.
package detection

import "time"

// Neutral defaults substituted when a reading is missing a field. Detectors
// must never fail on partial data.
const (
	DefaultPressure = 3.0  // bar
	DefaultFlow     = 50.0 // L/min
	DefaultDMAID    = "DMA-01"
)

// Reading is one immutable sensor observation. Pressure, FlowRate,
// Temperature and AcousticLevel are optional; nil means the sensor did not
// report that field.
type Reading struct {
	SensorID      string
	DMAID         string
	Pressure      *float64
	FlowRate      *float64
	Temperature   *float64
	AcousticLevel *float64
	TS            time.Time
}

// PressureValue returns the reading's pressure, or the neutral default when
// the field is absent.
func (r Reading) PressureValue() float64 {
	if r.Pressure == nil {
		return DefaultPressure
	}
	return *r.Pressure
}

// FlowValue returns the reading's flow rate, or the neutral default when the
// field is absent.
func (r Reading) FlowValue() float64 {
	if r.FlowRate == nil {
		return DefaultFlow
	}
	return *r.FlowRate
}

// Baseline holds a sensor's expected pressure and flow, derived per call
// from its trailing 24h history.
type Baseline struct {
	Pressure float64 `json:"pressure"`
	Flow     float64 `json:"flow"`
}

// DetectorOutput is the common shape of every detector result: an anomaly
// flag, a bounded contribution score in [0,1], and a short tag naming the
// triggering method.
type DetectorOutput struct {
	IsAnomaly bool    `json:"is_anomaly"`
	Score     float64 `json:"score"`
	Method    string  `json:"method"`
}

// Method tags shared across detectors.
const (
	MethodNone             = "none"
	MethodInsufficientData = "insufficient_data"
	MethodZScore           = "z_score"
	MethodIQR              = "iqr"
	MethodRateOfChange     = "rate_of_change"
	MethodNightFlow        = "night_flow"
)

// LeakType is the engine's leak classification, ordered by certainty.
type LeakType string

const (
	LeakNone      LeakType = "none"
	LeakSuspected LeakType = "suspected"
	LeakProbable  LeakType = "probable"
	LeakConfirmed LeakType = "confirmed"
)

// Severity of a detected leak.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DetectionResult is the engine's primary output, produced once per
// invocation. Confidence is clamped to [0, 0.99] and rounded to 3 decimals.
type DetectionResult struct {
	IsLeak           bool     `json:"is_leak"`
	LeakType         LeakType `json:"leak_type"`
	Confidence       float64  `json:"confidence"`
	Severity         Severity `json:"severity"`
	DetectionMethod  string   `json:"detection_method"`
	Signals          []string `json:"signals"`
	Explanation      string   `json:"explanation"`
	Recommendations  []string `json:"recommendations"`
	EstimatedLossLPH float64  `json:"estimated_loss_lph"`
	Location         string   `json:"location"`
}

// SignalEvidence captures one fired signal's raw value, threshold and
// deviation for audit.
type SignalEvidence struct {
	Type         string    `json:"type"`
	Contribution float64   `json:"contribution"`
	Value        float64   `json:"value"`
	Threshold    float64   `json:"threshold"`
	Deviation    float64   `json:"deviation"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	SensorID     string    `json:"sensor_id"`
}

// TimelineEntry is one step of the evidence timeline. KeyEvent marks
// contributions at or above the key-event threshold.
type TimelineEntry struct {
	Type         string    `json:"type"`
	Contribution float64   `json:"contribution"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	KeyEvent     bool      `json:"key_event"`
}

// Evidence is the structured explainability record attached to leak
// determinations at or above the warning threshold.
type Evidence struct {
	Signals             []SignalEvidence   `json:"signals"`
	ConfidenceBreakdown map[string]float64 `json:"confidence_breakdown"`
	FusionWeights       map[string]float64 `json:"fusion_weights"`
	Timeline            []TimelineEntry    `json:"timeline"`
	DetectionMethod     string             `json:"detection_method"`
	AnalysisDurationMS  float64            `json:"analysis_duration_ms"`
	Explanation         string             `json:"explanation"`
	Recommendations     []string           `json:"recommendations"`
	FeatureImportance   map[string]float64 `json:"feature_importance"`
}
