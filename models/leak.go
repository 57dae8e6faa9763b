package models

import "time"

// Leak lifecycle states. Transitions are linear with no cycle; the detection
// engine only ever creates leaks in StatusNew.
const (
	LeakStatusNew          = "new"
	LeakStatusAcknowledged = "acknowledged"
	LeakStatusDispatched   = "dispatched"
	LeakStatusResolved     = "resolved"
)

type Leak struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	TS               time.Time `gorm:"column:ts" json:"ts"`
	SensorID         string    `gorm:"column:sensor_id" json:"sensor_id"`
	DMAID            string    `gorm:"column:dma_id" json:"dma_id"`
	LeakType         string    `gorm:"column:leak_type" json:"leak_type"`
	Severity         string    `gorm:"column:severity" json:"severity"`
	Confidence       float64   `gorm:"column:confidence" json:"confidence"`
	EstimatedLossLPH float64   `gorm:"column:estimated_loss_lph" json:"estimated_loss_lph"`
	Status           string    `gorm:"column:status;default:new" json:"status"`
	DetectionMethod  string    `gorm:"column:detection_method" json:"detection_method"`
	Explanation      string    `gorm:"column:explanation" json:"explanation"`
	Evidence         string    `gorm:"column:evidence" json:"evidence"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Leak) TableName() string { return "leaks" }

// NextLeakStatus lists the only legal transition from each state.
var NextLeakStatus = map[string]string{
	LeakStatusNew:          LeakStatusAcknowledged,
	LeakStatusAcknowledged: LeakStatusDispatched,
	LeakStatusDispatched:   LeakStatusResolved,
}
