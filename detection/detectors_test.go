package detection

import (
	"math"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func stableHistory(n int, pressure, flow float64, start time.Time, step time.Duration) []Reading {
	readings := make([]Reading, n)
	for i := 0; i < n; i++ {
		readings[i] = Reading{
			SensorID: "S-001",
			DMAID:    "DMA-01",
			Pressure: fp(pressure),
			FlowRate: fp(flow),
			TS:       start.Add(time.Duration(i) * step),
		}
	}
	return readings
}

func TestEstimateBaseline(t *testing.T) {
	tests := []struct {
		name         string
		history      []Reading
		wantPressure float64
		wantFlow     float64
	}{
		{"empty history falls back to defaults", nil, DefaultPressure, DefaultFlow},
		{
			"mean of set fields",
			[]Reading{
				{Pressure: fp(2.0), FlowRate: fp(40)},
				{Pressure: fp(4.0), FlowRate: fp(60)},
			},
			3.0, 50.0,
		},
		{
			"missing fields skipped per field",
			[]Reading{
				{Pressure: fp(2.0)},
				{FlowRate: fp(80)},
			},
			2.0, 80.0,
		},
		{
			"all fields missing falls back",
			[]Reading{{}, {}},
			DefaultPressure, DefaultFlow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateBaseline(tt.history)
			if math.Abs(got.Pressure-tt.wantPressure) > 1e-9 {
				t.Errorf("Pressure = %v, want %v", got.Pressure, tt.wantPressure)
			}
			if math.Abs(got.Flow-tt.wantFlow) > 1e-9 {
				t.Errorf("Flow = %v, want %v", got.Flow, tt.wantFlow)
			}
		})
	}
}

func TestStatisticalCheckInsufficientHistory(t *testing.T) {
	for n := 0; n < minStatSamples; n++ {
		history := make([]float64, n)
		for i := range history {
			history[i] = 3.0
		}
		got := StatisticalCheck(1.0, history)
		if got.Method != MethodInsufficientData {
			t.Errorf("n=%d: method = %q, want %q", n, got.Method, MethodInsufficientData)
		}
		if got.IsAnomaly || got.Score != 0 {
			t.Errorf("n=%d: got anomaly=%v score=%v, want no anomaly and zero score", n, got.IsAnomaly, got.Score)
		}
	}
}

func TestStatisticalCheck(t *testing.T) {
	// 20 points around 3.0 with mild noise.
	history := []float64{
		3.0, 3.1, 2.9, 3.0, 3.05, 2.95, 3.0, 3.1, 2.9, 3.0,
		3.0, 3.05, 2.95, 3.0, 3.1, 2.9, 3.0, 3.0, 3.05, 2.95,
	}

	t.Run("far outlier flagged by z-score", func(t *testing.T) {
		got := StatisticalCheck(1.0, history)
		if !got.IsAnomaly {
			t.Fatal("expected anomaly for pressure far below history")
		}
		if got.Method != MethodZScore {
			t.Errorf("method = %q, want %q", got.Method, MethodZScore)
		}
		if got.Score <= 0 || got.Score > 1 {
			t.Errorf("score = %v, want (0, 1]", got.Score)
		}
	})

	t.Run("in-range value not flagged", func(t *testing.T) {
		got := StatisticalCheck(3.0, history)
		if got.IsAnomaly {
			t.Errorf("unexpected anomaly, method=%q score=%v", got.Method, got.Score)
		}
		if got.Method != MethodNone {
			t.Errorf("method = %q, want %q", got.Method, MethodNone)
		}
	})

	t.Run("zero variance uses IQR fence", func(t *testing.T) {
		flat := make([]float64, 20)
		for i := range flat {
			flat[i] = 3.0
		}
		got := StatisticalCheck(1.2, flat)
		if !got.IsAnomaly {
			t.Fatal("expected IQR anomaly with flat history")
		}
		if got.Method != MethodIQR {
			t.Errorf("method = %q, want %q", got.Method, MethodIQR)
		}
		if got.Score != 0 {
			t.Errorf("score = %v, want 0 when std dev is zero", got.Score)
		}
	})

	t.Run("score capped at 1", func(t *testing.T) {
		got := StatisticalCheck(-100, history)
		if got.Score != 1.0 {
			t.Errorf("score = %v, want 1.0", got.Score)
		}
	})
}

func TestRateOfChangeCheck(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	points := func(values []float64, stepMin float64) []PressurePoint {
		pts := make([]PressurePoint, len(values))
		for i, v := range values {
			pts[i] = PressurePoint{Value: v, TS: base.Add(time.Duration(float64(i) * stepMin * float64(time.Minute)))}
		}
		return pts
	}

	tests := []struct {
		name        string
		points      []PressurePoint
		wantAnomaly bool
		wantMethod  string
		wantScore   float64
	}{
		{"no points", nil, false, MethodInsufficientData, 0},
		{"single point", points([]float64{3.0}, 1), false, MethodInsufficientData, 0},
		{"slow drift below threshold", points([]float64{3.0, 2.95, 2.9, 2.85, 2.8}, 5), false, MethodNone, 0.05},
		{"abrupt drop over window", points([]float64{3.0, 2.8, 2.5, 2.2, 1.8}, 2), true, MethodRateOfChange, 0.75},
		{"only last five points used", points([]float64{9.0, 9.0, 3.0, 2.8, 2.5, 2.2, 1.8}, 2), true, MethodRateOfChange, 0.75},
		{"score capped at 1", points([]float64{3.0, 1.0}, 1), true, MethodRateOfChange, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateOfChangeCheck(tt.points)
			if got.IsAnomaly != tt.wantAnomaly {
				t.Errorf("anomaly = %v, want %v", got.IsAnomaly, tt.wantAnomaly)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("method = %q, want %q", got.Method, tt.wantMethod)
			}
			if math.Abs(got.Score-tt.wantScore) > 0.001 {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
		})
	}

	t.Run("identical timestamps yield no anomaly", func(t *testing.T) {
		pts := []PressurePoint{{Value: 3.0, TS: base}, {Value: 1.0, TS: base}}
		got := RateOfChangeCheck(pts)
		if got.IsAnomaly || got.Score != 0 {
			t.Errorf("got anomaly=%v score=%v, want none for zero elapsed time", got.IsAnomaly, got.Score)
		}
	})
}

func TestClassifyPattern(t *testing.T) {
	base := Baseline{Pressure: 3.0, Flow: 50.0}

	tests := []struct {
		name        string
		pressure    float64
		flow        float64
		base        Baseline
		wantPattern string
		wantIsLeak  bool
		wantScore   float64
	}{
		{"burst: big drop with big flow increase", 1.2, 150, base, PatternBurst, true, 0.95},
		{"burst: absolute low pressure and very high flow", 1.4, 130, Baseline{Pressure: 1.5, Flow: 125}, PatternBurst, true, 0.92},
		{"classic leak: moderate drop with elevated flow", 2.6, 85, base, PatternClassicLeak, true, 0.9},
		{"probable leak: absolute low with raised flow", 1.9, 65, Baseline{Pressure: 2.05, Flow: 62}, PatternProbableLeak, true, 0.75},
		{"slow leak: small coupled drift", 2.8, 54, base, PatternSlowLeak, true, 0.4},
		{"minor anomaly: pressure dip only", 2.85, 50, base, PatternMinorAnomaly, false, 0.25},
		{"normal: at baseline", 3.0, 50, base, PatternNormal, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPattern(tt.pressure, tt.flow, tt.base)
			if got.Pattern != tt.wantPattern {
				t.Errorf("pattern = %q, want %q", got.Pattern, tt.wantPattern)
			}
			if got.IsLeak != tt.wantIsLeak {
				t.Errorf("isLeak = %v, want %v", got.IsLeak, tt.wantIsLeak)
			}
			if math.Abs(got.Score-tt.wantScore) > 0.001 {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
		})
	}

	t.Run("first match wins: burst outranks classic", func(t *testing.T) {
		// These values satisfy both the burst and classic rules.
		got := ClassifyPattern(1.0, 160, base)
		if got.Pattern != PatternBurst {
			t.Errorf("pattern = %q, want %q", got.Pattern, PatternBurst)
		}
	})

	t.Run("absolute thresholds survive degraded baseline", func(t *testing.T) {
		// Baseline already degraded: relative drop is small but the absolute
		// low-pressure test still fires.
		got := ClassifyPattern(1.9, 70, Baseline{Pressure: 2.0, Flow: 68})
		if got.Pattern != PatternProbableLeak {
			t.Errorf("pattern = %q, want %q", got.Pattern, PatternProbableLeak)
		}
		if !got.AbsoluteLow {
			t.Error("expected AbsoluteLow to be set")
		}
	})

	t.Run("classic leak score bounded", func(t *testing.T) {
		got := ClassifyPattern(2.55, 81, base)
		if got.Pattern != PatternClassicLeak {
			t.Fatalf("pattern = %q, want %q", got.Pattern, PatternClassicLeak)
		}
		if got.Score < 0.6 || got.Score > 0.9 {
			t.Errorf("score = %v, want within [0.6, 0.9]", got.Score)
		}
	})
}

func TestNightFlowCheck(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("never fires outside quiet window", func(t *testing.T) {
		for hour := 0; hour < 24; hour++ {
			if hour >= nightWindowStart && hour <= nightWindowEnd {
				continue
			}
			got := NightFlowCheck(500, day.Add(time.Duration(hour)*time.Hour))
			if got.IsAnomaly || got.Score != 0 {
				t.Errorf("hour %d: got anomaly=%v score=%v, want dormant", hour, got.IsAnomaly, got.Score)
			}
		}
	})

	t.Run("fires inside quiet window", func(t *testing.T) {
		got := NightFlowCheck(20, day.Add(3*time.Hour))
		if !got.IsAnomaly {
			t.Fatal("expected anomaly for 20 L/min at 03:00")
		}
		if got.Method != MethodNightFlow {
			t.Errorf("method = %q, want %q", got.Method, MethodNightFlow)
		}
		if got.Score != 1.0 {
			t.Errorf("score = %v, want 1.0 (min(20/15, 1))", got.Score)
		}
	})

	t.Run("small trickle tolerated", func(t *testing.T) {
		got := NightFlowCheck(4, day.Add(2*time.Hour))
		if got.IsAnomaly {
			t.Errorf("unexpected anomaly for %v L/min", 4)
		}
	})
}

func TestCorrelateArea(t *testing.T) {
	siblings := func(pressures ...float64) []Reading {
		rs := make([]Reading, len(pressures))
		for i, p := range pressures {
			rs[i] = Reading{SensorID: "S", DMAID: "DMA-01", Pressure: fp(p)}
		}
		return rs
	}

	tests := []struct {
		name           string
		siblings       []Reading
		wantCorrelated bool
		wantAgreement  float64
	}{
		{"empty snapshot", nil, false, 0},
		{"single sensor not enough", siblings(1.0), false, 0},
		{"three of four abnormal", siblings(2.0, 2.2, 2.4, 3.0), true, 0.75},
		{"half abnormal below agreement", siblings(2.0, 2.2, 3.0, 3.1), false, 0.5},
		{"all abnormal", siblings(1.5, 1.8, 2.0), true, 1.0},
		{"missing pressure defaults to normal", []Reading{{}, {Pressure: fp(1.0)}}, false, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CorrelateArea(tt.siblings)
			if got.Correlated != tt.wantCorrelated {
				t.Errorf("correlated = %v, want %v", got.Correlated, tt.wantCorrelated)
			}
			if math.Abs(got.AgreementScore-tt.wantAgreement) > 0.001 {
				t.Errorf("agreement = %v, want %v", got.AgreementScore, tt.wantAgreement)
			}
		})
	}
}

func TestFuseConfidence(t *testing.T) {
	none := DetectorOutput{Method: MethodNone}

	t.Run("no contributions yields zero", func(t *testing.T) {
		got := FuseConfidence(none, none, none, PatternResult{Pattern: PatternNormal}, CorrelationResult{})
		if got.Confidence != 0 {
			t.Errorf("confidence = %v, want 0", got.Confidence)
		}
		if got.DirectIndicator {
			t.Error("unexpected direct indicator")
		}
	})

	t.Run("burst floor boosts to 0.85", func(t *testing.T) {
		pattern := PatternResult{Pattern: PatternBurst, Score: 0.95, IsLeak: true, AbsoluteDrop: true, AbsoluteHigh: true}
		got := FuseConfidence(none, none, none, pattern, CorrelationResult{})
		// 0.95*0.40 + 0.25 = 0.63, floored to 0.85.
		if got.Confidence != 0.85 {
			t.Errorf("confidence = %v, want 0.85", got.Confidence)
		}
	})

	t.Run("classic floor boosts to 0.70", func(t *testing.T) {
		pattern := PatternResult{Pattern: PatternClassicLeak, Score: 0.6, IsLeak: true}
		got := FuseConfidence(none, none, none, pattern, CorrelationResult{})
		if got.Confidence != 0.70 {
			t.Errorf("confidence = %v, want 0.70", got.Confidence)
		}
	})

	t.Run("probable floor boosts to 0.60", func(t *testing.T) {
		pattern := PatternResult{Pattern: PatternProbableLeak, Score: 0.75, IsLeak: true, AbsoluteLow: true}
		got := FuseConfidence(none, none, none, pattern, CorrelationResult{})
		if got.Confidence != 0.60 {
			t.Errorf("confidence = %v, want 0.60", got.Confidence)
		}
	})

	t.Run("direct indicator alone floors at 0.50", func(t *testing.T) {
		pattern := PatternResult{Pattern: PatternMinorAnomaly, Score: 0.25, AbsoluteDrop: true}
		got := FuseConfidence(none, none, none, pattern, CorrelationResult{})
		if got.Confidence != 0.50 {
			t.Errorf("confidence = %v, want 0.50", got.Confidence)
		}
		if !got.DirectIndicator {
			t.Error("expected direct indicator from absolute threshold")
		}
	})

	t.Run("non-leak pattern contributes at reduced weight", func(t *testing.T) {
		pattern := PatternResult{Pattern: PatternMinorAnomaly, Score: 0.25}
		got := FuseConfidence(none, none, none, pattern, CorrelationResult{})
		want := 0.25 * nonLeakPatternWeight
		if math.Abs(got.Confidence-want) > 1e-9 {
			t.Errorf("confidence = %v, want %v", got.Confidence, want)
		}
	})

	t.Run("correlation uses agreement score directly", func(t *testing.T) {
		corr := CorrelationResult{Correlated: true, AgreementScore: 0.75, AbnormalCount: 3, TotalCount: 4}
		got := FuseConfidence(none, none, none, PatternResult{Pattern: PatternNormal}, corr)
		want := 0.75 * FusionWeights[SourceCorrelation]
		if math.Abs(got.Confidence-want) > 1e-9 {
			t.Errorf("confidence = %v, want %v", got.Confidence, want)
		}
	})

	t.Run("confidence clamped below 1", func(t *testing.T) {
		stat := DetectorOutput{IsAnomaly: true, Score: 1, Method: MethodZScore}
		rate := DetectorOutput{IsAnomaly: true, Score: 1, Method: MethodRateOfChange}
		night := DetectorOutput{IsAnomaly: true, Score: 1, Method: MethodNightFlow}
		pattern := PatternResult{Pattern: PatternBurst, Score: 0.95, IsLeak: true, AbsoluteLow: true, AbsoluteHigh: true, AbsoluteDrop: true}
		corr := CorrelationResult{Correlated: true, AgreementScore: 1}
		got := FuseConfidence(stat, rate, night, pattern, corr)
		if got.Confidence > maxConfidence {
			t.Errorf("confidence = %v, want <= %v", got.Confidence, maxConfidence)
		}
	})
}

func TestClassifyLeakAndSeverity(t *testing.T) {
	tests := []struct {
		name         string
		confidence   float64
		pattern      string
		direct       bool
		wantLeak     LeakType
		wantSeverity Severity
	}{
		{"high confidence confirmed critical", 0.9, PatternNormal, false, LeakConfirmed, SeverityCritical},
		{"burst always confirmed critical", 0.3, PatternBurst, true, LeakConfirmed, SeverityCritical},
		{"probable by confidence", 0.72, PatternSlowLeak, true, LeakProbable, SeverityHigh},
		{"classic always at least probable", 0.4, PatternClassicLeak, true, LeakProbable, SeverityHigh},
		{"suspected by confidence", 0.55, PatternMinorAnomaly, false, LeakSuspected, SeverityMedium},
		{"suspected by direct indicator", 0.3, PatternMinorAnomaly, true, LeakSuspected, SeverityLow},
		{"none below all thresholds", 0.2, PatternNormal, false, LeakNone, SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyLeak(tt.confidence, tt.pattern, tt.direct); got != tt.wantLeak {
				t.Errorf("ClassifyLeak = %q, want %q", got, tt.wantLeak)
			}
			if got := ClassifySeverity(tt.confidence, tt.pattern); got != tt.wantSeverity {
				t.Errorf("ClassifySeverity = %q, want %q", got, tt.wantSeverity)
			}
		})
	}
}

func TestEstimateLoss(t *testing.T) {
	t.Run("zero for no leak", func(t *testing.T) {
		if got := EstimateLoss(LeakNone, PatternBurst, 1.0, 200, 0.99); got != 0 {
			t.Errorf("loss = %v, want 0", got)
		}
	})

	t.Run("burst scenario", func(t *testing.T) {
		// excess=100, pressureFactor=1+(2.5-1.2)=2.3, typeFactor=3.
		got := EstimateLoss(LeakConfirmed, PatternBurst, 1.2, 150, 0.85)
		want := math.Round(100 * 2.3 * 3 * 0.85 * 60)
		if got != want {
			t.Errorf("loss = %v, want %v", got, want)
		}
	})

	t.Run("strictly increases with confidence", func(t *testing.T) {
		prev := -1.0
		for _, conf := range []float64{0.5, 0.6, 0.7, 0.85, 0.99} {
			got := EstimateLoss(LeakProbable, PatternClassicLeak, 2.2, 90, conf)
			if got <= prev {
				t.Errorf("loss %v at confidence %v not greater than %v", got, conf, prev)
			}
			prev = got
		}
	})

	t.Run("no excess flow means no estimated loss", func(t *testing.T) {
		if got := EstimateLoss(LeakSuspected, PatternMinorAnomaly, 2.8, 40, 0.6); got != 0 {
			t.Errorf("loss = %v, want 0", got)
		}
	})
}
