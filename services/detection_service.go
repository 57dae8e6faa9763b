package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"leak-detection-api/config"
	"leak-detection-api/detection"
	"leak-detection-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	historyWindow = 24 * time.Hour
	siblingWindow = 5 * time.Minute
)

// DetectionService runs the leak-detection engine against one incoming
// reading: it performs the collaborator reads (the sensor's 24h history and
// the DMA's 5-minute sibling snapshot), invokes the engine, persists the
// annotated reading, and conditionally records a leak plus alert.
type DetectionService struct {
	db           *gorm.DB
	cache        *CacheService
	opts         detection.Options
	alertChannel string
}

func NewDetectionService(db *gorm.DB, cache *CacheService, cfg config.DetectionConfig) *DetectionService {
	return &DetectionService{
		db:           db,
		cache:        cache,
		opts:         detection.Options{MinWarmupSamples: cfg.MinWarmupSamples},
		alertChannel: cfg.AlertChannel,
	}
}

// AnalyzeRequest is the per-invocation input contract. All numeric fields
// are optional; the engine substitutes neutral defaults.
type AnalyzeRequest struct {
	SensorID      string   `json:"sensor_id" binding:"required"`
	DMAID         string   `json:"dma_id"`
	Pressure      *float64 `json:"pressure"`
	FlowRate      *float64 `json:"flow_rate"`
	Temperature   *float64 `json:"temperature"`
	AcousticLevel *float64 `json:"acoustic_level"`
}

// AnalyzeResponse is the output contract returned to the caller.
type AnalyzeResponse struct {
	Success            bool                      `json:"success"`
	Timestamp          time.Time                 `json:"timestamp"`
	AnalysisDurationMS float64                   `json:"analysis_duration_ms"`
	Result             detection.DetectionResult `json:"result"`
	Baselines          detection.Baseline        `json:"baselines"`
}

// AnalyzeReading scores one reading. A failed history fetch or a failed
// write aborts the invocation with an error and no partial result.
func (s *DetectionService) AnalyzeReading(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	now := time.Now().UTC()

	dmaID := req.DMAID
	if dmaID == "" {
		dmaID = detection.DefaultDMAID
	}

	reading := detection.Reading{
		SensorID:      req.SensorID,
		DMAID:         dmaID,
		Pressure:      req.Pressure,
		FlowRate:      req.FlowRate,
		Temperature:   req.Temperature,
		AcousticLevel: req.AcousticLevel,
		TS:            now,
	}

	history, err := s.fetchHistory(ctx, req.SensorID, now)
	if err != nil {
		return nil, fmt.Errorf("fetch sensor history: %w", err)
	}

	siblings, err := s.fetchSiblings(ctx, dmaID, now)
	if err != nil {
		return nil, fmt.Errorf("fetch area snapshot: %w", err)
	}

	start := time.Now()
	out := detection.Analyze(detection.Input{
		Reading:  reading,
		History:  history,
		Siblings: siblings,
		Options:  s.opts,
	})
	durationMS := float64(time.Since(start).Microseconds()) / 1000
	if out.Evidence != nil {
		out.Evidence.AnalysisDurationMS = durationMS
	}

	if err := s.persistReading(ctx, reading, out.Result); err != nil {
		return nil, fmt.Errorf("persist reading: %w", err)
	}

	if out.Result.IsLeak && out.Result.Confidence >= detection.WarningThreshold {
		if err := s.recordLeak(ctx, reading, out); err != nil {
			return nil, fmt.Errorf("record leak: %w", err)
		}
	}

	return &AnalyzeResponse{
		Success:            true,
		Timestamp:          now,
		AnalysisDurationMS: durationMS,
		Result:             out.Result,
		Baselines:          out.Baseline,
	}, nil
}

func (s *DetectionService) fetchHistory(ctx context.Context, sensorID string, now time.Time) ([]detection.Reading, error) {
	var rows []models.SensorReading
	err := s.db.WithContext(ctx).
		Where("sensor_id = ? AND ts >= ?", sensorID, now.Add(-historyWindow)).
		Order("ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDetectionReadings(rows), nil
}

func (s *DetectionService) fetchSiblings(ctx context.Context, dmaID string, now time.Time) ([]detection.Reading, error) {
	var rows []models.SensorReading
	err := s.db.WithContext(ctx).
		Where("dma_id = ? AND ts >= ?", dmaID, now.Add(-siblingWindow)).
		Order("ts ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDetectionReadings(rows), nil
}

func (s *DetectionService) persistReading(ctx context.Context, r detection.Reading, result detection.DetectionResult) error {
	signals, err := json.Marshal(result.Signals)
	if err != nil {
		return err
	}
	confidence := result.Confidence
	row := models.SensorReading{
		TS:              r.TS,
		SensorID:        r.SensorID,
		DMAID:           r.DMAID,
		Pressure:        r.Pressure,
		FlowRate:        r.FlowRate,
		Temperature:     r.Temperature,
		AcousticLevel:   r.AcousticLevel,
		Confidence:      &confidence,
		LeakType:        string(result.LeakType),
		Severity:        string(result.Severity),
		DetectionMethod: result.DetectionMethod,
		Signals:         string(signals),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *DetectionService) recordLeak(ctx context.Context, r detection.Reading, out detection.Output) error {
	evidence, err := json.Marshal(out.Evidence)
	if err != nil {
		return err
	}

	leak := models.Leak{
		ID:               uuid.NewString(),
		TS:               r.TS,
		SensorID:         r.SensorID,
		DMAID:            r.DMAID,
		LeakType:         string(out.Result.LeakType),
		Severity:         string(out.Result.Severity),
		Confidence:       out.Result.Confidence,
		EstimatedLossLPH: out.Result.EstimatedLossLPH,
		Status:           models.LeakStatusNew,
		DetectionMethod:  out.Result.DetectionMethod,
		Explanation:      out.Result.Explanation,
		Evidence:         string(evidence),
		UpdatedAt:        r.TS,
	}
	if err := s.db.WithContext(ctx).Create(&leak).Error; err != nil {
		return err
	}

	alert := models.Alert{
		ID:       uuid.NewString(),
		LeakID:   leak.ID,
		TS:       r.TS,
		SensorID: r.SensorID,
		Severity: string(out.Result.Severity),
		Message: fmt.Sprintf("%s leak at %s (%.1f%% confidence, est. %.0f L/h)",
			out.Result.LeakType, out.Result.Location, out.Result.Confidence*100, out.Result.EstimatedLossLPH),
	}
	if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return err
	}

	// Best effort: a dropped live notification is not a failed invocation.
	if err := s.cache.Publish(ctx, s.alertChannel, alert); err != nil {
		log.Printf("alert publish failed for leak=%s: %v", leak.ID, err)
	}
	return nil
}

func toDetectionReadings(rows []models.SensorReading) []detection.Reading {
	readings := make([]detection.Reading, len(rows))
	for i, row := range rows {
		readings[i] = detection.Reading{
			SensorID:      row.SensorID,
			DMAID:         row.DMAID,
			Pressure:      row.Pressure,
			FlowRate:      row.FlowRate,
			Temperature:   row.Temperature,
			AcousticLevel: row.AcousticLevel,
			TS:            row.TS,
		}
	}
	return readings
}
