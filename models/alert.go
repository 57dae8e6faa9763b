package models

import "time"

type Alert struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	LeakID       string    `gorm:"column:leak_id" json:"leak_id"`
	TS           time.Time `gorm:"column:ts" json:"ts"`
	SensorID     string    `gorm:"column:sensor_id" json:"sensor_id"`
	Severity     string    `gorm:"column:severity" json:"severity"`
	Message      string    `gorm:"column:message" json:"message"`
	Acknowledged bool      `gorm:"column:acknowledged;default:false" json:"acknowledged"`
}

func (Alert) TableName() string { return "alerts" }
