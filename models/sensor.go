package models

import "time"

type Sensor struct {
	SensorID  string    `gorm:"column:sensor_id;primaryKey" json:"sensor_id"`
	DMAID     string    `gorm:"column:dma_id" json:"dma_id"`
	Label     string    `gorm:"column:label" json:"label"`
	Lat       *float64  `gorm:"column:lat" json:"lat"`
	Lng       *float64  `gorm:"column:lng" json:"lng"`
	Status    string    `gorm:"column:status;default:active" json:"status"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Sensor) TableName() string { return "sensors" }
