package models

import "time"

// SensorReading is one raw observation, annotated after scoring with a
// compact summary of the engine's analysis.
type SensorReading struct {
	TS            time.Time `gorm:"column:ts;primaryKey" json:"ts"`
	SensorID      string    `gorm:"column:sensor_id;primaryKey" json:"sensor_id"`
	DMAID         string    `gorm:"column:dma_id" json:"dma_id"`
	Pressure      *float64  `gorm:"column:pressure" json:"pressure"`
	FlowRate      *float64  `gorm:"column:flow_rate" json:"flow_rate"`
	Temperature   *float64  `gorm:"column:temperature" json:"temperature"`
	AcousticLevel *float64  `gorm:"column:acoustic_level" json:"acoustic_level"`

	Confidence      *float64 `gorm:"column:confidence" json:"confidence"`
	LeakType        string   `gorm:"column:leak_type" json:"leak_type"`
	Severity        string   `gorm:"column:severity" json:"severity"`
	DetectionMethod string   `gorm:"column:detection_method" json:"detection_method"`
	Signals         string   `gorm:"column:signals" json:"signals"`
}

func (SensorReading) TableName() string { return "sensor_readings" }
