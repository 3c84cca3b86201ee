package models

import (
	"time"

	"gorm.io/gorm"
)

// MaintenanceIntervention records ad-hoc maintenance work done on the
// infrastructure, kept alongside the daily checks.
type MaintenanceIntervention struct {
	gorm.Model
	Date        time.Time `gorm:"not null;index" json:"date"`
	Description string    `gorm:"not null" json:"description"`
	PerformedBy string    `gorm:"size:64;not null" json:"performed_by"`
}
